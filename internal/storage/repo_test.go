package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestConversationRepo_GetOrCreate(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	if _, err := repo.GetBySession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBySession() error = %v, want ErrNotFound", err)
	}

	first, err := repo.GetOrCreate(ctx, "s-1", "127.0.0.1", "curl/8")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first.ID == 0 || first.SessionID != "s-1" || first.UserIP != "127.0.0.1" || first.UserAgent != "curl/8" {
		t.Errorf("GetOrCreate() = %+v", first)
	}
	if first.StartedAt.IsZero() {
		t.Error("GetOrCreate() StartedAt is zero")
	}

	again, err := repo.GetOrCreate(ctx, "s-1", "10.0.0.1", "other")
	if err != nil {
		t.Fatalf("GetOrCreate() second call error = %v", err)
	}
	if again.ID != first.ID || again.UserIP != "127.0.0.1" {
		t.Errorf("GetOrCreate() second call = %+v, want existing %+v", again, first)
	}
}

func TestConversationRepo_GetOrCreate_Concurrent(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)

	var wg sync.WaitGroup
	ids := make([]int64, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := repo.GetOrCreate(context.Background(), "shared", "", "")
			errs[i] = err
			if c != nil {
				ids[i] = c.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("GetOrCreate() error = %v", errs[i])
		}
		if ids[i] != ids[0] {
			t.Errorf("GetOrCreate() ids = %v, want all equal", ids)
		}
	}
}

func TestConversationRepo_Touch(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	later := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	c, err := repo.GetOrCreate(ctx, "s-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	repo.now = func() time.Time { return later }

	if err := repo.Touch(ctx, c.ID, 2); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	got, err := repo.GetBySession(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetBySession() error = %v", err)
	}
	if got.TotalMessages != 2 {
		t.Errorf("TotalMessages = %d, want 2", got.TotalMessages)
	}
	if !got.LastMessageAt.Equal(later) {
		t.Errorf("LastMessageAt = %v, want %v", got.LastMessageAt, later)
	}

	if err := repo.Touch(ctx, 9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Touch() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestMessageRepo_ListRecent(t *testing.T) {
	db := newTestDB(t)
	convs := NewConversationRepo(db)
	repo := NewMessageRepo(db)
	ctx := context.Background()

	c, err := convs.GetOrCreate(ctx, "s-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	contents := []string{"q1", "a1", "q2", "a2", "q3"}
	for i, content := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msg := &Message{ConversationID: c.ID, Role: role, Content: content, ExtraData: `{"path":"exact"}`}
		if err := repo.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
		if msg.ID == 0 {
			t.Fatal("Insert() did not set ID")
		}
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "last three oldest first", limit: 3, want: []string{"q2", "a2", "q3"}},
		{name: "more than stored", limit: 10, want: contents},
		{name: "zero limit", limit: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := repo.ListRecent(ctx, c.ID, tt.limit)
			if err != nil {
				t.Fatalf("ListRecent() error = %v", err)
			}
			if len(msgs) != len(tt.want) {
				t.Fatalf("ListRecent() returned %d messages, want %d", len(msgs), len(tt.want))
			}
			for i, m := range msgs {
				if m.Content != tt.want[i] {
					t.Errorf("ListRecent()[%d] = %q, want %q", i, m.Content, tt.want[i])
				}
			}
		})
	}

	msgs, _ := repo.ListRecent(ctx, c.ID, 1)
	if msgs[0].ExtraData != `{"path":"exact"}` {
		t.Errorf("ExtraData = %q", msgs[0].ExtraData)
	}
}

func TestMessageRepo_Insert_UnknownConversation(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepo(db)

	err := repo.Insert(context.Background(), &Message{ConversationID: 42, Role: "user", Content: "hola"})
	if err == nil {
		t.Fatal("Insert() expected foreign key error, got nil")
	}
}

func TestArticleQueryRepo_MostQueried(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleQueryRepo(db)
	ctx := context.Background()

	now := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	queries := []ArticleQuery{
		{ArticleKey: "138", Found: true, Source: "memory", SearchType: SearchExact},
		{ArticleKey: "138", Found: true, Source: "redis", SearchType: SearchExact},
		{ArticleKey: "138", Found: false, SearchType: SearchExact},
		{ArticleKey: "142 bis", Found: true, Source: "regex", SearchType: SearchRegex},
		{ArticleKey: "234", Found: true, Source: "vector", SearchType: SearchSemantic},
		{ArticleKey: "234", Found: true, Source: "vector", SearchType: SearchSemantic},
		// Outside a 30 day window.
		{ArticleKey: "999", Found: true, QueriedAt: now.AddDate(0, 0, -60)},
		{ArticleKey: "999", Found: true, QueriedAt: now.AddDate(0, 0, -60)},
		{ArticleKey: "999", Found: true, QueriedAt: now.AddDate(0, 0, -60)},
		{ArticleKey: "999", Found: true, QueriedAt: now.AddDate(0, 0, -60)},
	}
	for i := range queries {
		if err := repo.Log(ctx, &queries[i]); err != nil {
			t.Fatalf("Log() error = %v", err)
		}
	}

	stats, err := repo.MostQueried(ctx, 10, 30)
	if err != nil {
		t.Fatalf("MostQueried() error = %v", err)
	}
	want := []ArticleStat{
		{ArticleKey: "138", Count: 3, Found: 2},
		{ArticleKey: "234", Count: 2, Found: 2},
		{ArticleKey: "142 bis", Count: 1, Found: 1},
	}
	if len(stats) != len(want) {
		t.Fatalf("MostQueried() = %+v, want %+v", stats, want)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("MostQueried()[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}

	all, err := repo.MostQueried(ctx, 1, 0)
	if err != nil {
		t.Fatalf("MostQueried() all time error = %v", err)
	}
	if len(all) != 1 || all[0].ArticleKey != "999" {
		t.Errorf("MostQueried() all time = %+v, want 999 first", all)
	}
}

func TestArticleQueryRepo_Log_WithConversation(t *testing.T) {
	db := newTestDB(t)
	convs := NewConversationRepo(db)
	repo := NewArticleQueryRepo(db)
	ctx := context.Background()

	c, err := convs.GetOrCreate(ctx, "s-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	q := &ArticleQuery{ArticleKey: "138", ConversationID: c.ID, Found: true, ResponseTimeMS: 1.5}
	if err := repo.Log(ctx, q); err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	if q.ID == 0 {
		t.Error("Log() did not set ID")
	}
}

func TestConversationRepo_End(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	c, err := repo.GetOrCreate(ctx, "s-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if !c.IsActive || c.EndedAt != nil {
		t.Fatalf("new conversation IsActive = %v, EndedAt = %v", c.IsActive, c.EndedAt)
	}

	ended := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return ended }
	if err := repo.End(ctx, c.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	repo.now = func() time.Time { return ended.Add(time.Hour) }
	if err := repo.End(ctx, c.ID); err != nil {
		t.Fatalf("End() second call error = %v", err)
	}

	got, err := repo.GetBySession(ctx, "s-1")
	if err != nil {
		t.Fatalf("GetBySession() error = %v", err)
	}
	if got.IsActive {
		t.Error("IsActive = true after End()")
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("EndedAt = %v, want %v", got.EndedAt, ended)
	}

	if err := repo.End(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("End() unknown id error = %v, want ErrNotFound", err)
	}
}

func TestConversationRepo_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewConversationRepo(db)
	ctx := context.Background()

	base := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	ids := map[string]int64{}
	for i, session := range []string{"s-1", "s-2", "s-3"} {
		repo.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		c, err := repo.GetOrCreate(ctx, session, "", "")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		ids[session] = c.ID
	}
	if err := repo.End(ctx, ids["s-2"]); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	active, inactive := true, false
	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{name: "newest first", opts: ListOptions{Limit: 10}, want: []string{"s-3", "s-2", "s-1"}},
		{name: "page", opts: ListOptions{Offset: 1, Limit: 1}, want: []string{"s-2"}},
		{name: "active only", opts: ListOptions{Limit: 10, Active: &active}, want: []string{"s-3", "s-1"}},
		{name: "ended only", opts: ListOptions{Limit: 10, Active: &inactive}, want: []string{"s-2"}},
		{name: "zero limit", opts: ListOptions{}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			convs, err := repo.List(ctx, tt.opts)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(convs) != len(tt.want) {
				t.Fatalf("List() returned %d conversations, want %d", len(convs), len(tt.want))
			}
			for i, c := range convs {
				if c.SessionID != tt.want[i] {
					t.Errorf("List()[%d] = %q, want %q", i, c.SessionID, tt.want[i])
				}
			}
		})
	}
}

func TestMessageRepo_ListByConversation(t *testing.T) {
	db := newTestDB(t)
	convs := NewConversationRepo(db)
	repo := NewMessageRepo(db)
	ctx := context.Background()

	c, err := convs.GetOrCreate(ctx, "s-1", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	other, err := convs.GetOrCreate(ctx, "s-2", "", "")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	for _, content := range []string{"q1", "a1", "q2"} {
		if err := repo.Insert(ctx, &Message{ConversationID: c.ID, Role: "user", Content: content}); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	if err := repo.Insert(ctx, &Message{ConversationID: other.ID, Role: "user", Content: "elsewhere"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	tests := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{name: "all oldest first", limit: 10, want: []string{"q1", "a1", "q2"}},
		{name: "offset", offset: 1, limit: 1, want: []string{"a1"}},
		{name: "past the end", offset: 5, limit: 10, want: nil},
		{name: "zero limit", limit: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := repo.ListByConversation(ctx, c.ID, tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("ListByConversation() error = %v", err)
			}
			if len(msgs) != len(tt.want) {
				t.Fatalf("ListByConversation() returned %d messages, want %d", len(msgs), len(tt.want))
			}
			for i, m := range msgs {
				if m.Content != tt.want[i] {
					t.Errorf("ListByConversation()[%d] = %q, want %q", i, m.Content, tt.want[i])
				}
			}
		})
	}
}

func TestConversationRepo_GlobalStats(t *testing.T) {
	db := newTestDB(t)
	convs := NewConversationRepo(db)
	msgs := NewMessageRepo(db)
	queries := NewArticleQueryRepo(db)
	ctx := context.Background()

	empty, err := convs.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats() empty error = %v", err)
	}
	if *empty != (GlobalStats{}) {
		t.Errorf("GlobalStats() empty = %+v, want zero", *empty)
	}

	first, _ := convs.GetOrCreate(ctx, "s-1", "", "")
	second, _ := convs.GetOrCreate(ctx, "s-2", "", "")
	for _, m := range []Message{
		{ConversationID: first.ID, Role: "user", Content: "q1"},
		{ConversationID: first.ID, Role: "assistant", Content: "a1", ResponseTimeMS: 100},
		{ConversationID: first.ID, Role: "user", Content: "q2"},
		{ConversationID: first.ID, Role: "assistant", Content: "a2", ResponseTimeMS: 250.5},
		{ConversationID: second.ID, Role: "user", Content: "q1"},
	} {
		if err := msgs.Insert(ctx, &m); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	if err := convs.Touch(ctx, first.ID, 4); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := convs.Touch(ctx, second.ID, 1); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if err := convs.End(ctx, second.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := queries.Log(ctx, &ArticleQuery{ArticleKey: "138", Found: true}); err != nil {
		t.Fatalf("Log() error = %v", err)
	}

	got, err := convs.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats() error = %v", err)
	}
	want := GlobalStats{
		TotalConversations:         2,
		ActiveConversations:        1,
		TotalMessages:              5,
		TotalArticleQueries:        1,
		AvgMessagesPerConversation: 2.5,
		AvgResponseTimeMS:          175.25,
	}
	if *got != want {
		t.Errorf("GlobalStats() = %+v, want %+v", *got, want)
	}
}

func TestConversationRepo_DailyActivity(t *testing.T) {
	db := newTestDB(t)
	convs := NewConversationRepo(db)
	msgs := NewMessageRepo(db)
	ctx := context.Background()

	now := time.Date(2030, 6, 10, 12, 0, 0, 0, time.UTC)
	start := func(session string, at time.Time, messages int) {
		t.Helper()
		convs.now = func() time.Time { return at }
		c, err := convs.GetOrCreate(ctx, session, "", "")
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		for i := 0; i < messages; i++ {
			if err := msgs.Insert(ctx, &Message{ConversationID: c.ID, Role: "user", Content: "q"}); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
		}
	}
	start("old", now.AddDate(0, 0, -30), 3)
	start("a", now.AddDate(0, 0, -2), 2)
	start("b", now.AddDate(0, 0, -2).Add(time.Hour), 0)
	start("c", now.Add(-time.Hour), 1)
	convs.now = func() time.Time { return now }

	got, err := convs.DailyActivity(ctx, 7)
	if err != nil {
		t.Fatalf("DailyActivity() error = %v", err)
	}
	want := []DailyActivity{
		{Date: "2030-06-08", Conversations: 2, Messages: 2},
		{Date: "2030-06-10", Conversations: 1, Messages: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("DailyActivity() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DailyActivity()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	none, err := convs.DailyActivity(ctx, 0)
	if err != nil {
		t.Fatalf("DailyActivity(0) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("DailyActivity(0) = %+v, want empty", none)
	}
}
