package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mmvec/vector"
)

func blob(t *testing.T, v ...float32) []byte {
	t.Helper()
	b, err := vector.EncodeEmbedding(v)
	require.NoError(t, err)
	return b
}

func TestRegisterVectorFunctionsAndUse(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var sim float64
	require.NoError(t, db.QueryRow(`SELECT vec_cosine(?, ?)`, blob(t, 1, 0), blob(t, 0, 1)).Scan(&sim))
	assert.Equal(t, 0.0, sim)

	require.NoError(t, db.QueryRow(`SELECT vec_cosine(?, ?)`, blob(t, 1, 0), blob(t, 1, 0)).Scan(&sim))
	assert.InDelta(t, 1.0, sim, 1e-9)

	var dist float64
	require.NoError(t, db.QueryRow(`SELECT vec_l2(?, ?)`, blob(t, 0, 0), blob(t, 3, 4)).Scan(&dist))
	assert.InDelta(t, 5.0, dist, 1e-9)

	require.NoError(t, db.QueryRow(`SELECT vec_distance('l2', ?, ?)`, blob(t, 0, 0), blob(t, 3, 4)).Scan(&dist))
	assert.InDelta(t, 25.0, dist, 1e-9)

	require.NoError(t, db.QueryRow(`SELECT vec_distance('cosine', ?, ?)`, blob(t, 1, 0), blob(t, 0, 1)).Scan(&dist))
	assert.InDelta(t, 1.0, dist, 1e-9)
}

func TestVecDistance_OrderBy(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE docs(id TEXT PRIMARY KEY, embedding BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO docs(id, embedding) VALUES ('d1', ?), ('d2', ?), ('d3', ?)`,
		blob(t, 0, 1), blob(t, 1, 0), blob(t, 0.7, 0.7))
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id FROM docs ORDER BY vec_distance('cosine', embedding, ?) ASC`, blob(t, 1, 0))
	require.NoError(t, err)
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"d2", "d3", "d1"}, ids)
}

func TestVecDistance_UnknownMetric(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var dist float64
	err = db.QueryRow(`SELECT vec_distance('hamming', ?, ?)`, blob(t, 1), blob(t, 1)).Scan(&dist)
	assert.Error(t, err)
}

func TestVecDistance_Undefined(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	var dist *float64
	require.NoError(t, db.QueryRow(`SELECT vec_distance('cosine', ?, ?)`, blob(t, 0, 0), blob(t, 1, 0)).Scan(&dist))
	assert.Nil(t, dist)

	err = db.QueryRow(`SELECT vec_distance('l2', ?, ?)`, blob(t, 1, 0), blob(t, 1)).Scan(&dist)
	assert.Error(t, err)
}
