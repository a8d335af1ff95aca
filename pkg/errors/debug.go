package errors

import (
	"errors"
	"fmt"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	BackendVariant string `json:"backend_variant,omitempty"`
	BackendReason  string `json:"backend_reason,omitempty"`
}

// variant is satisfied by backend errors that carry a tagged result variant.
type variant interface {
	VariantKind() string
	VariantReason() string
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var v variant
	if errors.As(err, &v) {
		d.BackendVariant = v.VariantKind()
		d.BackendReason = v.VariantReason()
	}

	return d
}
