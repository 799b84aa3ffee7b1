package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/mock/gomock"

	"sensune.app/story-bot/internal/progress"
	"sensune.app/story-bot/internal/progress/mock"
)

func defaults(userID int64) progress.UserProgress {
	return progress.New(userID, 200, 1)
}

func TestRepositoryGetCreatesDefault(t *testing.T) {
	ctx := context.Background()
	store := progress.NewMemoryStore()
	repo := progress.NewRepository(store, defaults)

	p, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.UserID != 42 || p.Coins != 200 || p.GachaTickets != 1 || p.CheckInStreak != 0 {
		t.Fatalf("unexpected default record: %+v", p)
	}
	if _, err := store.Load(ctx, 42); err != nil {
		t.Fatalf("default record was not persisted: %v", err)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := progress.NewRepository(progress.NewMemoryStore(), defaults)

	got, err := repo.Update(ctx, 7, func(p progress.UserProgress) (progress.UserProgress, error) {
		p.Coins -= 150
		p.UnlockedCharacters = p.UnlockedCharacters.With("kai")
		return p, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Coins != 50 || !got.UnlockedCharacters.Has("kai") {
		t.Fatalf("Update result: %+v", got)
	}

	again, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(got) {
		t.Fatalf("stored %+v, want %+v", again, got)
	}
}

func TestRepositoryUpdateSkipsSaveWhenUnchanged(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	existing := defaults(5)

	store.EXPECT().Load(gomock.Any(), int64(5)).Return(existing, nil)
	// Save не ожидается: gomock упадёт, если он будет вызван

	repo := progress.NewRepository(store, defaults)
	got, err := repo.Update(context.Background(), 5, func(p progress.UserProgress) (progress.UserProgress, error) {
		return p, nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !got.Equal(existing) {
		t.Fatalf("got %+v", got)
	}
}

func TestRepositoryUpdateErrors(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		setup   func(s *mock.MockStore)
		fn      func(progress.UserProgress) (progress.UserProgress, error)
		wantErr error
	}{
		{
			name: "load failure",
			setup: func(s *mock.MockStore) {
				s.EXPECT().Load(gomock.Any(), int64(9)).Return(progress.UserProgress{}, errBoom)
			},
			fn:      func(p progress.UserProgress) (progress.UserProgress, error) { return p, nil },
			wantErr: errBoom,
		},
		{
			name: "save failure",
			setup: func(s *mock.MockStore) {
				s.EXPECT().Load(gomock.Any(), int64(9)).Return(defaults(9), nil)
				s.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errBoom)
			},
			fn: func(p progress.UserProgress) (progress.UserProgress, error) {
				p.Coins++
				return p, nil
			},
			wantErr: errBoom,
		},
		{
			name: "fn error aborts save",
			setup: func(s *mock.MockStore) {
				s.EXPECT().Load(gomock.Any(), int64(9)).Return(defaults(9), nil)
			},
			fn: func(p progress.UserProgress) (progress.UserProgress, error) {
				p.Coins = 0
				return p, errBoom
			},
			wantErr: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mock.NewMockStore(gomock.NewController(t))
			tt.setup(store)
			repo := progress.NewRepository(store, defaults)

			_, err := repo.Update(context.Background(), 9, tt.fn)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepositorySerializesUpdatesPerUser(t *testing.T) {
	ctx := context.Background()
	repo := progress.NewRepository(progress.NewMemoryStore(), defaults)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, 1, func(p progress.UserProgress) (progress.UserProgress, error) {
				p.Coins++
				return p, nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Coins != 200+n {
		t.Fatalf("coins = %d, want %d (lost update)", p.Coins, 200+n)
	}
}

func TestIDSetCopyOnWrite(t *testing.T) {
	a := progress.NewIDSet("b", "a", "b")
	if len(a) != 2 || a[0] != "a" {
		t.Fatalf("NewIDSet = %v", a)
	}
	b := a.With("c", "a")
	if len(a) != 2 || a.Has("c") {
		t.Fatalf("With mutated the receiver: %v", a)
	}
	if len(b) != 3 || !b.HasAll([]string{"a", "b", "c"}) {
		t.Fatalf("With = %v", b)
	}
}
