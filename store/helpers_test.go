package store_test

import (
	"database/sql"

	"github.com/viant/mmvec/engine"
)

func openMemory() (*sql.DB, error) {
	db, err := engine.Open(":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
