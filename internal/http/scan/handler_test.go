package scan

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

func TestHandler_Keys(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCodes  []string
		wantIndex  []int
	}{
		{
			name: "scanner burst",
			body: `{"events":[
				{"kind":"char","char":"0","at":"2026-03-02T09:00:00.000Z"},
				{"kind":"char","char":"0","at":"2026-03-02T09:00:00.010Z"},
				{"kind":"char","char":"7","at":"2026-03-02T09:00:00.020Z"},
				{"kind":"enter","at":"2026-03-02T09:00:00.030Z"}]}`,
			wantStatus: http.StatusOK,
			wantCodes:  []string{"007"},
			wantIndex:  []int{3},
		},
		{
			name: "human typing",
			body: `{"events":[
				{"kind":"char","char":"4","at":"2026-03-02T09:00:00.000Z"},
				{"kind":"char","char":"2","at":"2026-03-02T09:00:00.300Z"},
				{"kind":"enter","at":"2026-03-02T09:00:00.600Z"}]}`,
			wantStatus: http.StatusOK,
			wantCodes:  []string{},
			wantIndex:  []int{},
		},
		{
			name: "control keys are ignored",
			body: `{"events":[
				{"kind":"char","char":"A","at":"2026-03-02T09:00:00.000Z"},
				{"kind":"control","at":"2026-03-02T09:00:00.005Z"},
				{"kind":"char","char":"B","at":"2026-03-02T09:00:00.010Z"},
				{"kind":"enter","at":"2026-03-02T09:00:00.020Z"}]}`,
			wantStatus: http.StatusOK,
			wantCodes:  []string{"AB"},
			wantIndex:  []int{3},
		},
		{
			name:       "unknown kind",
			body:       `{"events":[{"kind":"mouse","at":"2026-03-02T09:00:00.000Z"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "multi character char event",
			body:       `{"events":[{"kind":"char","char":"ab","at":"2026-03-02T09:00:00.000Z"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"events":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	r := chi.NewRouter()
	NewHandler(nil, 0, 0).Routes(r)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/keys", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}

			var got []tokenResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

			codes := make([]string, 0, len(got))
			idx := make([]int, 0, len(got))

			for _, tok := range got {
				codes = append(codes, tok.Code)
				idx = append(idx, tok.Index)
			}

			assert.Equal(t, tt.wantCodes, codes)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}

func TestHandler_Confirm(t *testing.T) {
	id := uuid.MustParse("9d1c2b3a-4e5f-4a6b-8c7d-0e1f2a3b4c5d")
	created := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	cad := identity.Actor{ID: "u-2", Name: "João", Sector: "CAD"}

	pending := func() *order.Order {
		return &order.Order{
			ID:          id,
			ExternalRef: "0001",
			Status:      order.StatusPending,
			History: order.History{
				{ID: uuid.New(), At: created, Action: "Order created at front desk", ActorID: "desk"},
			},
		}
	}

	tests := []struct {
		name       string
		kind       string
		setupMock  func(repo *order.MockRepository)
		wantStatus int
		wantSector string
	}{
		{
			name: "entry is recorded",
			kind: "entry",
			setupMock: func(repo *order.MockRepository) {
				repo.EXPECT().Get(gomock.Any(), id).Return(pending(), nil)
				repo.EXPECT().Persist(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
			wantSector: "CAD",
		},
		{
			name: "exit before entry conflicts",
			kind: "exit",
			setupMock: func(repo *order.MockRepository) {
				repo.EXPECT().Get(gomock.Any(), id).Return(pending(), nil)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "tracking from a sector station conflicts",
			kind: "tracking",
			setupMock: func(repo *order.MockRepository) {
				repo.EXPECT().Get(gomock.Any(), id).Return(pending(), nil)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := order.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := order.NewService(repo, order.NewMockCatalog(ctrl), order.NewMockPaymentGateway(ctrl),
				order.WithClock(func() time.Time { return created.Add(time.Hour) }),
			)

			r := chi.NewRouter()
			NewHandler(svc, 0, 0).Routes(r)

			body := fmt.Sprintf(`{"order_id":%q,"kind":%q}`, id, tt.kind)
			req := httptest.NewRequest(http.MethodPost, "/confirm", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(identity.WithActor(req.Context(), cad))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantStatus != http.StatusOK {
				return
			}

			var got confirmResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, order.StatusInProgress, got.Status)
			assert.Equal(t, tt.wantSector, got.CurrentSector)
		})
	}
}
