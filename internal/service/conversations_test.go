package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"penalcode-ai/internal/service"
	"penalcode-ai/internal/storage"
	storage_mocks "penalcode-ai/internal/storage/mocks"
)

func newConversationService(ctrl *gomock.Controller) (service.ConversationService, *storage_mocks.MockConversationStore, *storage_mocks.MockMessageStore) {
	convs := storage_mocks.NewMockConversationStore(ctrl)
	msgs := storage_mocks.NewMockMessageStore(ctrl)
	return service.NewConversationService(convs, msgs), convs, msgs
}

func TestConversationService_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, convs, _ := newConversationService(ctrl)

	want := &storage.GlobalStats{TotalConversations: 3, ActiveConversations: 2, TotalMessages: 9, AvgMessagesPerConversation: 3}
	convs.EXPECT().GlobalStats(gomock.Any()).Return(want, nil)

	got, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if *got != *want {
		t.Errorf("Stats() = %+v, want %+v", *got, *want)
	}

	convs.EXPECT().GlobalStats(gomock.Any()).Return(nil, errors.New("disk I/O error"))
	if _, err := svc.Stats(context.Background()); err == nil {
		t.Error("Stats() expected error, got nil")
	}
}

func TestConversationService_Daily(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		wantDays int
		checkErr func(error) bool
	}{
		{name: "defaults", days: 0, wantDays: 7},
		{name: "explicit window", days: 30, wantDays: 30},
		{name: "negative days", days: -1, checkErr: func(err error) bool { return errors.Is(err, service.ErrInvalidInput) }},
		{name: "window too large", days: 366, checkErr: func(err error) bool { return errors.Is(err, service.ErrInvalidInput) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, convs, _ := newConversationService(ctrl)
			if tt.checkErr == nil {
				convs.EXPECT().DailyActivity(gomock.Any(), tt.wantDays).Return(nil, nil)
			}

			got, err := svc.Daily(context.Background(), tt.days)
			if tt.checkErr != nil {
				if !tt.checkErr(err) {
					t.Errorf("Daily() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Daily() error = %v", err)
			}
			if got == nil {
				t.Error("Daily() returned nil, want empty slice")
			}
		})
	}
}

func TestConversationService_List(t *testing.T) {
	active := true
	tests := []struct {
		name     string
		opts     storage.ListOptions
		want     storage.ListOptions
		checkErr func(error) bool
	}{
		{name: "defaults", want: storage.ListOptions{Limit: 20}},
		{name: "explicit page", opts: storage.ListOptions{Offset: 40, Limit: 20, Active: &active}, want: storage.ListOptions{Offset: 40, Limit: 20, Active: &active}},
		{name: "limit too large", opts: storage.ListOptions{Limit: 101}, checkErr: func(err error) bool { return errors.Is(err, service.ErrInvalidInput) }},
		{name: "negative offset", opts: storage.ListOptions{Offset: -1}, checkErr: func(err error) bool { return errors.Is(err, service.ErrInvalidInput) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, convs, _ := newConversationService(ctrl)
			if tt.checkErr == nil {
				convs.EXPECT().List(gomock.Any(), tt.want).Return([]storage.Conversation{{SessionID: "s-1"}}, nil)
			}

			got, err := svc.List(context.Background(), tt.opts)
			if tt.checkErr != nil {
				if !tt.checkErr(err) {
					t.Errorf("List() error = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != 1 || got[0].SessionID != "s-1" {
				t.Errorf("List() = %+v", got)
			}
		})
	}
}

func TestConversationService_Get(t *testing.T) {
	conv := &storage.Conversation{ID: 7, SessionID: "s-1", TotalMessages: 2, IsActive: true}

	t.Run("with messages", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, convs, msgs := newConversationService(ctrl)
		convs.EXPECT().GetBySession(gomock.Any(), "s-1").Return(conv, nil)
		msgs.EXPECT().ListByConversation(gomock.Any(), int64(7), 0, 1000).Return([]storage.Message{
			{ID: 1, Role: "user", Content: "¿Qué dice el artículo 138?"},
			{ID: 2, Role: "assistant", Content: "El artículo 138 castiga el homicidio."},
		}, nil)

		got, err := svc.Get(context.Background(), " s-1 ")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Conversation.SessionID != "s-1" || len(got.Messages) != 2 || got.Messages[0].Role != "user" {
			t.Errorf("Get() = %+v", got)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, convs, _ := newConversationService(ctrl)
		convs.EXPECT().GetBySession(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

		if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Get() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, _, _ := newConversationService(ctrl)

		if _, err := svc.Get(context.Background(), "  "); !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("Get() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("message store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, convs, msgs := newConversationService(ctrl)
		convs.EXPECT().GetBySession(gomock.Any(), "s-1").Return(conv, nil)
		msgs.EXPECT().ListByConversation(gomock.Any(), int64(7), 0, 1000).Return(nil, errors.New("database is locked"))

		_, err := svc.Get(context.Background(), "s-1")
		if err == nil || errors.Is(err, service.ErrNotFound) {
			t.Errorf("Get() error = %v, want internal error", err)
		}
	})
}

func TestConversationService_End(t *testing.T) {
	active := &storage.Conversation{ID: 7, SessionID: "s-1", IsActive: true}
	endedAt := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	ended := &storage.Conversation{ID: 7, SessionID: "s-1", IsActive: false, EndedAt: &endedAt}

	t.Run("ends conversation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, convs, _ := newConversationService(ctrl)
		gomock.InOrder(
			convs.EXPECT().GetBySession(gomock.Any(), "s-1").Return(active, nil),
			convs.EXPECT().End(gomock.Any(), int64(7)).Return(nil),
			convs.EXPECT().GetBySession(gomock.Any(), "s-1").Return(ended, nil),
		)

		got, err := svc.End(context.Background(), "s-1")
		if err != nil {
			t.Fatalf("End() error = %v", err)
		}
		if got.IsActive || got.EndedAt == nil || !got.EndedAt.Equal(endedAt) {
			t.Errorf("End() = %+v", got)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc, convs, _ := newConversationService(ctrl)
		convs.EXPECT().GetBySession(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

		if _, err := svc.End(context.Background(), "missing"); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("End() error = %v, want ErrNotFound", err)
		}
	})
}
