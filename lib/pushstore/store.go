// Package pushstore persists web push subscriptions handed over by browsers,
// keyed on the push service endpoint url.
package pushstore

import (
	"context"
	"database/sql"
	"aptusassist-backend/lib/pushstore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Subscription mirrors what PushSubscription.toJSON() produces in the
// browser: the endpoint plus the client keys the push payload is encrypted
// against.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// SaveIfNotExists inserts the subscription unless one with the same endpoint
// already exists. browsers re-post their subscription on every page load, so
// duplicates are the common case.
func (s Store) SaveIfNotExists(ctx context.Context, sub Subscription) error {
	return s.qry.InsertSubscription(ctx, db.InsertSubscriptionParams{
		Endpoint: sub.Endpoint,
		P256dh:   sub.P256dh,
		Auth:     sub.Auth,
	})
}

func (s Store) FindAll(ctx context.Context) ([]Subscription, error) {
	rows, err := s.qry.GetSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	var subs []Subscription
	for _, row := range rows {
		subs = append(subs, Subscription{
			Endpoint: row.Endpoint,
			P256dh:   row.P256dh,
			Auth:     row.Auth,
		})
	}
	return subs, nil
}

func (s Store) FindByEndpoint(ctx context.Context, endpoint string) (Subscription, bool, error) {
	row, err := s.qry.GetSubscription(ctx, endpoint)
	if err == sql.ErrNoRows {
		return Subscription{}, false, nil
	}
	if err != nil {
		return Subscription{}, false, err
	}
	return Subscription{
		Endpoint: row.Endpoint,
		P256dh:   row.P256dh,
		Auth:     row.Auth,
	}, true, nil
}

// Delete removes the subscription for the endpoint. deleting an unknown
// endpoint is not an error.
func (s Store) Delete(ctx context.Context, endpoint string) error {
	return s.qry.DeleteSubscription(ctx, endpoint)
}
