package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
		exists    bool
	}{
		{EventTypeCreated, "created", true},
		{EventTypeModified, "modified", true},
		{EventTypeDeleted, "deleted", false},
		{EventTypeRenamed, "renamed", false},
		{EventType(99), "unknown", false},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
			assert.Equal(t, tc.exists, tc.eventType.Exists())
		})
	}
}

func TestEventTypeOf(t *testing.T) {
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create))
	assert.Equal(t, EventTypeCreated, eventTypeOf(fsnotify.Create|fsnotify.Write))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Write))
	assert.Equal(t, EventTypeDeleted, eventTypeOf(fsnotify.Remove))
	assert.Equal(t, EventTypeRenamed, eventTypeOf(fsnotify.Rename))
	assert.Equal(t, EventTypeModified, eventTypeOf(fsnotify.Chmod))
}

func TestFilters(t *testing.T) {
	javaOnly := GlobFilter("*.java")
	assert.True(t, javaOnly("/src/Main.java"))
	assert.False(t, javaOnly("/src/Main.java.bak"))
	assert.False(t, javaOnly("/src/notes.txt"))

	all := GlobFilter("*")
	assert.True(t, all("/anything/at/all"))

	assert.True(t, NoGitFilter("/repo/src/a.txt"))
	assert.False(t, NoGitFilter("/repo/.git/HEAD"))
	assert.False(t, NoGitFilter(".git/config"))
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.NotNil(t, watcher.logger)
	assert.Empty(t, watcher.filters)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAccepts(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.True(t, watcher.accepts("/x/a.txt"))

	watcher.AddFilter(GlobFilter("*.txt"))
	watcher.AddFilter(NoGitFilter)

	assert.True(t, watcher.accepts("/x/a.txt"))
	assert.False(t, watcher.accepts("/x/a.java"))
	assert.False(t, watcher.accepts("/x/.git/a.txt"))
}

func TestAddRecursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "c"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "f.txt"), []byte("x"), 0o644))

	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(root))

	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "c"),
	}, watcher.WatchList())
}

func TestAddRecursiveFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.AddRecursive(file))
	assert.Equal(t, []string{root}, watcher.WatchList())
}

func TestAddPathMissing(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, nil)
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Error(t, watcher.AddPath(filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, watcher.AddRecursive(filepath.Join(t.TempDir(), "missing")))
}

func TestDebouncerCoalesces(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.run(ctx)

	require.True(t, d.Add(ChangeEvent{Type: EventTypeCreated, Path: "/b"}))
	require.True(t, d.Add(ChangeEvent{Type: EventTypeModified, Path: "/a"}))
	require.True(t, d.Add(ChangeEvent{Type: EventTypeModified, Path: "/b"}))

	select {
	case events := <-d.Output():
		require.Len(t, events, 2)
		assert.Equal(t, "/a", events[0].Path)
		assert.Equal(t, "/b", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.addEvent(ChangeEvent{Path: "/a"})
	d.stop()

	select {
	case <-d.Output():
		t.Fatal("batch delivered after stop")
	case <-time.After(50 * time.Millisecond):
	}

	d.addEvent(ChangeEvent{Path: "/b"})
	assert.Len(t, d.pending, 1)
}

func TestDebouncerQueueFull(t *testing.T) {
	d := NewDebouncer(time.Hour)
	for i := 0; i < cap(d.events); i++ {
		require.True(t, d.Add(ChangeEvent{Path: "/x"}))
	}
	assert.False(t, d.Add(ChangeEvent{Path: "/x"}))
}

func TestFileWatcherDeliversChanges(t *testing.T) {
	root := t.TempDir()

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	watcher.AddFilter(GlobFilter("*.txt"))

	batches := make(chan []ChangeEvent, 10)
	watcher.AddHandler(func(events []ChangeEvent) error {
		batches <- events
		return nil
	})
	require.NoError(t, watcher.AddRecursive(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.bin"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644))

	var seen []ChangeEvent
	deadline := time.After(5 * time.Second)
	for len(seen) == 0 {
		select {
		case events := <-batches:
			seen = append(seen, events...)
		case <-deadline:
			t.Fatal("no change delivered")
		}
	}

	for _, event := range seen {
		assert.Equal(t, filepath.Join(root, "a.txt"), event.Path)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFileWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()

	watcher, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)

	batches := make(chan []ChangeEvent, 10)
	watcher.AddHandler(func(events []ChangeEvent) error {
		batches <- events
		return nil
	})
	require.NoError(t, watcher.AddRecursive(root))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Run(ctx) }()

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// The new directory is added from the event loop
	require.Eventually(t, func() bool {
		for _, dir := range watcher.WatchList() {
			if dir == sub {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	target := filepath.Join(sub, "late.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case events := <-batches:
			for _, event := range events {
				if event.Path == target {
					return
				}
			}
		case <-deadline:
			t.Fatal("change in new directory not delivered")
		}
	}
}
