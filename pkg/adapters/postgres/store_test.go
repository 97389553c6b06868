package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/aretw0/storyline/pkg/adapters/postgres"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_DSN(t *testing.T) {
	tests := []struct {
		name string
		opts postgres.Options
		want string
	}{
		{
			name: "Without Port",
			opts: postgres.Options{Host: "db", Username: "bot", Password: "pw", Database: "stories"},
			want: "host=db user=bot password=pw dbname=stories",
		},
		{
			name: "With Port And SSL",
			opts: postgres.Options{Host: "db", Port: 5433, Username: "bot", Database: "stories", SSLMode: "disable"},
			want: "host=db port=5433 user=bot dbname=stories sslmode=disable",
		},
		{
			name: "Quoted Password",
			opts: postgres.Options{Host: "db", Password: `it's a secret\`, Database: "s"},
			want: `host=db password='it\'s a secret\\' dbname=s`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.DSN())
		})
	}
}

// Runs against a real server only when STORYLINE_TEST_POSTGRES_DSN is set.
func TestPostgresStore_Contract(t *testing.T) {
	dsn := os.Getenv("STORYLINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STORYLINE_TEST_POSTGRES_DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	store := postgres.NewFromDB(db)
	require.NoError(t, store.EnsureSchema(ctx))
	_, err = db.ExecContext(ctx, `TRUNCATE user_progress`)
	require.NoError(t, err)

	ports.RunProgressStoreContract(t, store)
}
