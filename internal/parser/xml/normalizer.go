// Package xml turns CII invoice XML into either the canonical EInvoice or a
// generic element tree.
package xml

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rezonia/einvoice-extractor/internal/cii"
	"github.com/rezonia/einvoice-extractor/internal/model"
)

// Output is the result of normalizing one XML document. Exactly one of
// Tree and Invoice is set, depending on the mode.
type Output struct {
	Tree    Tree
	Invoice *model.EInvoice
}

// Normalizer converts invoice XML text according to a mode
type Normalizer struct {
	logger *zap.Logger
}

// NormalizerOption configures a Normalizer
type NormalizerOption func(*Normalizer)

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// NewNormalizer creates a Normalizer
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize parses data in the given mode.
//
// ModeJSON returns the element tree without any CII checks. ModeSimple
// decodes the document and maps it to a validated EInvoice. ModeXML is
// handled by the caller, since it needs no parsing.
func (n *Normalizer) Normalize(data []byte, mode model.Mode) (*Output, error) {
	switch mode {
	case model.ModeJSON:
		tree, err := ParseTree(data)
		if err != nil {
			n.logger.Debug("xml tree parse failed", zap.Error(err))
			return nil, err
		}
		return &Output{Tree: tree}, nil

	case model.ModeSimple:
		doc, err := cii.Decode(data)
		if err != nil {
			n.logger.Debug("cii decode failed", zap.Error(err))
			return nil, err
		}
		inv, err := cii.Map(doc)
		if err != nil {
			n.logger.Debug("cii mapping rejected document",
				zap.String("code", string(model.CodeOf(err))),
				zap.Error(err))
			return nil, err
		}
		return &Output{Invoice: inv}, nil

	default:
		return nil, model.NewInputError("mode", fmt.Sprintf("unsupported normalization mode %q", mode), nil)
	}
}
