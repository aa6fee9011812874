package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openBenchmarkRepositories(b *testing.B) map[string]IMessageRepository {
	b.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelError)
	limit := lo.ToPtr(50)

	db, err := badger.Open(badger.DefaultOptions(b.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(b, err)
	sqlite, err := OpenSQLiteMessageRepository(filepath.Join(b.TempDir(), "chat.db"), log, limit)
	require.NoError(b, err)

	repositories := map[string]IMessageRepository{
		DriverBadger: NewMessageRepository(db, log, limit),
		DriverSQLite: sqlite,
	}
	b.Cleanup(func() {
		for _, repository := range repositories {
			_ = repository.Close()
		}
	})
	return repositories
}

func BenchmarkCreate(b *testing.B) {
	for driver, repository := range openBenchmarkRepositories(b) {
		b.Run(driver, func(b *testing.B) {
			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := repository.Create(ctx, "bench", fmt.Sprintf("message %d", i)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCreate_Parallel(b *testing.B) {
	for driver, repository := range openBenchmarkRepositories(b) {
		b.Run(driver, func(b *testing.B) {
			ctx := context.Background()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if _, err := repository.Create(ctx, "bench", "parallel"); err != nil {
						b.Error(err)
						return
					}
				}
			})
		})
	}
}

// BenchmarkGetMessages reads the latest page out of 10k stored messages.
func BenchmarkGetMessages(b *testing.B) {
	for driver, repository := range openBenchmarkRepositories(b) {
		ctx := context.Background()
		for i := 0; i < 10_000; i++ {
			_, err := repository.Create(ctx, "seed", fmt.Sprintf("message %d", i))
			require.NoError(b, err)
		}

		b.Run(driver, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				messages, _, err := repository.GetMessages(nil)
				if err != nil {
					b.Fatal(err)
				}
				if len(messages) != 50 {
					b.Fatalf("expected a full page, got %d", len(messages))
				}
			}
		})
	}
}
