package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/labtrack/internal/catalog"
)

func TestService_Lookup(t *testing.T) {
	type testCase struct {
		name      string
		id        string
		setupMock func(m *catalog.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Found",
			id:   "coroa",
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().
					GetEntry(gomock.Any(), "coroa").
					Return(&catalog.Entry{ID: "coroa", BasePrice: 45000}, nil)
			},
		},
		{
			name: "NotFound",
			id:   "nope",
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().
					GetEntry(gomock.Any(), "nope").
					Return(nil, catalog.ErrNotFound)
			},
			wantErr: catalog.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := catalog.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := catalog.NewService(repo)
			got, err := svc.Lookup(context.Background(), tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(45000), got.BasePrice)
		})
	}
}

func TestService_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := catalog.NewMockRepository(ctrl)
	parser := catalog.NewMockParser(ctrl)
	entries := []*catalog.Entry{{ID: "a", Name: "Coroa", BasePrice: 100}}

	parser.EXPECT().Parse(gomock.Any()).Return(entries, nil)
	repo.EXPECT().UpsertEntries(gomock.Any(), entries).Return(nil)

	svc := catalog.NewService(repo)
	got, err := svc.Import(context.Background(), parser, strings.NewReader("irrelevant"))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestService_ImportParseError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := catalog.NewMockRepository(ctrl)
	parser := catalog.NewMockParser(ctrl)
	parser.EXPECT().Parse(gomock.Any()).Return(nil, errors.New("broken"))

	svc := catalog.NewService(repo)
	_, err := svc.Import(context.Background(), parser, strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse price list")
}

func TestMemory(t *testing.T) {
	m := catalog.NewMemory(
		&catalog.Entry{ID: "b", Name: "Faceta", Category: "Fixa"},
		&catalog.Entry{ID: "a", Name: "Coroa", Category: "Fixa"},
		&catalog.Entry{ID: "c", Name: "Placa", Category: "Acessórios"},
	)

	svc := catalog.NewService(m)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	_, err = svc.Lookup(context.Background(), "zzz")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	require.NoError(t, svc.Seed(context.Background(), []*catalog.Entry{{ID: "zzz", Name: "Novo"}}))

	got, err := svc.Lookup(context.Background(), "zzz")
	require.NoError(t, err)
	assert.Equal(t, "Novo", got.Name)
}

func TestMemory_CallersCannotAlterEntries(t *testing.T) {
	svc := catalog.NewService(catalog.NewMemory(&catalog.Entry{
		ID:        "a",
		Name:      "Coroa",
		BasePrice: 45000,
		Groups: []catalog.Group{{
			ID:      "g",
			Options: []catalog.Option{{ID: "v1", Disables: []string{"v2"}}},
		}},
	}))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)

	list[0].BasePrice = 1
	list[0].Groups[0].Options[0].Disables[0] = "changed"

	got, err := svc.Lookup(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), got.BasePrice)
	assert.Equal(t, []string{"v2"}, got.Groups[0].Options[0].Disables)

	again, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(45000), again[0].BasePrice)
}
