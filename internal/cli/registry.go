package cli

import (
	"context"

	"github.com/roach88/insightq/internal/catalog"
	"github.com/roach88/insightq/internal/schema"
)

// loadRegistry resolves the registry for validation: the --registry file
// first, then a snapshot of the --catalog database.
func (o *RootOptions) loadRegistry(ctx context.Context) (schema.Registry, error) {
	switch {
	case o.Registry != "":
		reg, err := schema.LoadFile(o.Registry)
		if err != nil {
			return nil, &commandError{Code: ErrCodeRegistry, Message: "load registry", Err: err}
		}
		return reg, nil
	case o.Catalog != "":
		cat, err := o.openCatalog()
		if err != nil {
			return nil, err
		}
		defer cat.Close()

		reg, err := cat.Registry(ctx)
		if err != nil {
			return nil, &commandError{Code: ErrCodeRegistry, Message: "read catalog", Err: err}
		}
		return reg, nil
	default:
		return nil, &commandError{
			Code:    ErrCodeNoRegistry,
			Message: "no dataset registry: pass --registry or --catalog",
		}
	}
}

func (o *RootOptions) openCatalog() (*catalog.Catalog, error) {
	if o.Catalog == "" {
		return nil, &commandError{Code: ErrCodeNoRegistry, Message: "--catalog is required"}
	}
	cat, err := catalog.Open(o.Catalog)
	if err != nil {
		return nil, &commandError{Code: ErrCodeRegistry, Message: "open catalog", Err: err}
	}
	return cat, nil
}
