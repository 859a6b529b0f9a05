package orders

import "time"

// Apply returns a new collection in which the order with id has moved by
// action. orders is not modified; on error it is returned as is.
func Apply(orders []Order, id string, action Action) ([]Order, error) {
	out := make([]Order, len(orders))
	copy(out, orders)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		next, err := Transition(out[i].Status, action)
		if err != nil {
			return orders, err
		}
		out[i].Status = next
		return out, nil
	}
	return orders, ErrNotFound
}

// Filter keeps orders in status s; the empty status keeps all.
func Filter(orders []Order, s Status) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if s == "" || o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

// CountByStatus counts orders per status. Every status has an entry.
func CountByStatus(orders []Order) map[Status]int {
	out := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		out[s] = 0
	}
	for _, o := range orders {
		out[o.Status]++
	}
	return out
}

// DatedOn counts orders whose date falls on day (UTC calendar date).
func DatedOn(orders []Order, day time.Time) int {
	y, m, d := day.UTC().Date()
	n := 0
	for _, o := range orders {
		oy, om, od := o.Date.UTC().Date()
		if oy == y && om == m && od == d {
			n++
		}
	}
	return n
}
