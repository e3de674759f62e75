package store

import (
	"context"
	"errors"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrAmbiguousOrder = errors.New("order id is not unique")
)

// OrderOwner returns the email of the user whose record holds orderID.
// Order ids are assigned by the server, so finding the id in more than one
// record means the data is damaged and ErrAmbiguousOrder is returned.
func OrderOwner(ctx context.Context, s Store, orderID string) (string, error) {
	users, err := s.All(ctx)
	if err != nil {
		return "", err
	}
	owner := ""
	for email, u := range users {
		if u.FindOrder(orderID) == nil {
			continue
		}
		if owner != "" {
			return "", ErrAmbiguousOrder
		}
		owner = email
	}
	if owner == "" {
		return "", ErrOrderNotFound
	}
	return owner, nil
}
