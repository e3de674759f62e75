package marketplace

import (
	"sort"

	"github.com/sudo-init-do/tgwork/internal/models"
)

// FeedQuery selects listings for one viewer. An empty Category matches
// every category.
type FeedQuery struct {
	Kind     Kind
	Category string
	Viewer   string
}

func (q FeedQuery) keep(l Listing) bool {
	if q.Category != "" && l.Category != q.Category {
		return false
	}
	if l.Status == string(models.ServiceDeleted) || l.Status == string(models.OrderDeleted) {
		return false
	}
	return l.AuthorEmail != q.Viewer
}

// BuildFeed flattens every user's services or orders into one list,
// dropping deleted items and the viewer's own, newest first.
func BuildFeed(users map[string]models.User, q FeedQuery) []Listing {
	out := []Listing{}
	for _, u := range users {
		switch q.Kind {
		case KindServices:
			for _, s := range u.Services {
				if l := ServiceListing(s); q.keep(l) {
					out = append(out, l)
				}
			}
		case KindOrders:
			for _, o := range u.Orders {
				if l := OrderListing(o); q.keep(l) {
					out = append(out, l)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
