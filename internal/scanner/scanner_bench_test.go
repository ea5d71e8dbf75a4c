package scanner

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/conneroisu/charsetcop/internal/charset"
)

// createTestTree fills an in-memory filesystem with count files spread over
// ten directories.
func createTestTree(b *testing.B, count int) afero.Fs {
	b.Helper()

	fs := afero.NewMemMapFs()
	content := []byte(strings.Repeat("héllo wörld ", 200))
	for i := 0; i < count; i++ {
		path := fmt.Sprintf("/bench/d%d/file_%d.txt", i%10, i)
		if err := afero.WriteFile(fs, path, content, 0o644); err != nil {
			b.Fatal(err)
		}
	}

	return fs
}

func BenchmarkScan(b *testing.B) {
	for _, count := range []int{10, 100, 1000} {
		for _, workers := range []int{1, 4, 8} {
			b.Run(fmt.Sprintf("files-%d/workers-%d", count, workers), func(b *testing.B) {
				fs := createTestTree(b, count)
				enc, err := charset.DefaultRegistry().Lookup("UTF-8")
				if err != nil {
					b.Fatal(err)
				}

				opts := DefaultOptions()
				opts.Workers = workers
				s, err := New(charset.NewValidator(charset.WithFs(fs)), opts)
				if err != nil {
					b.Fatal(err)
				}

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					stats, err := s.Scan(context.Background(), enc, "/bench")
					if err != nil {
						b.Fatal(err)
					}
					if stats.ValidFiles != int64(count) {
						b.Fatalf("validated %d files, want %d", stats.ValidFiles, count)
					}
				}
			})
		}
	}
}
