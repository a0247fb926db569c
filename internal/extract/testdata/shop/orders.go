package shop

import "github.com/toyz/bindplan/pkg/outcome"

type Order struct {
	ID     int
	Status string
}

type Orders struct {
	store map[int]Order
}

//bindplan::handler GET /orders
func (o *Orders) List(status []string) ([]Order, error) {
	return nil, nil
}

//bindplan::handler POST /orders/{id}/cancel -Middleware=Auth
func (o *Orders) Cancel(id int) error {
	order, ok := o.store[id]
	if !ok {
		return outcome.NotFound("order %d not found", id)
	}
	return validate(order)
}
