package shop

import "github.com/toyz/bindplan/pkg/outcome"

func validate(o Order) error {
	if o.Status == "shipped" {
		return outcome.Conflict("order %d already shipped", o.ID)
	}
	return nil
}
