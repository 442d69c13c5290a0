package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenotes-backend-go/internal/api"
	"voicenotes-backend-go/internal/core"
	"voicenotes-backend-go/internal/models"
)

type fakeRedemptionService struct {
	redeemFn func(ctx context.Context, userID, code string) (int64, error)
}

func (s *fakeRedemptionService) Redeem(ctx context.Context, userID, code string) (int64, error) {
	return s.redeemFn(ctx, userID, code)
}

// newBillingRouter wires the billing handler behind a stub that injects the
// authenticated user, mirroring what the auth middleware does in production.
func newBillingRouter(rs core.RedemptionService, ps core.ProfileService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := api.NewBillingHandler(rs, ps, nil)
	router := gin.New()
	authStub := func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
	}
	billing := router.Group("/api/v1/billing", authStub)
	billing.POST("/redeem-gift-code", handler.RedeemGiftCode)
	billing.POST("/select-plan", handler.SelectPlan)
	return router
}

func TestRedeemGiftCode(t *testing.T) {
	t.Run("successful redemption returns the new balance", func(t *testing.T) {
		rs := &fakeRedemptionService{
			redeemFn: func(_ context.Context, userID, code string) (int64, error) {
				assert.Equal(t, "u1", userID)
				assert.Equal(t, "CODE-1", code)
				return 1025, nil
			},
		}
		router := newBillingRouter(rs, nil, "u1")

		recorder := postJSON(t, router, "/api/v1/billing/redeem-gift-code", map[string]string{"code": "CODE-1"})

		require.Equal(t, http.StatusOK, recorder.Code)
		var resp api.RedeemResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, int64(1025), resp.NewCredits)
	})

	t.Run("missing user context answers 401", func(t *testing.T) {
		rs := &fakeRedemptionService{
			redeemFn: func(context.Context, string, string) (int64, error) {
				t.Fatal("service must not be called")
				return 0, nil
			},
		}
		router := newBillingRouter(rs, nil, "")

		recorder := postJSON(t, router, "/api/v1/billing/redeem-gift-code", map[string]string{"code": "CODE-1"})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("maps redemption errors to status codes", func(t *testing.T) {
		cases := []struct {
			name       string
			serviceErr error
			status     int
			message    string
		}{
			{"empty code", core.ErrEmptyCode, http.StatusBadRequest, "Please enter a gift code."},
			{"unknown code", core.ErrCodeNotFound, http.StatusNotFound, "Invalid gift code."},
			{"already redeemed", core.ErrCodeRedeemed, http.StatusConflict, "This gift code has already been redeemed."},
			{"expired", core.ErrCodeExpired, http.StatusGone, "This gift code has expired."},
			{"store not initialized", core.ErrStoreNotInitialized, http.StatusInternalServerError, core.ErrStoreNotInitialized.Error()},
		}
		for _, tc := range cases {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				rs := &fakeRedemptionService{
					redeemFn: func(context.Context, string, string) (int64, error) {
						return 0, tc.serviceErr
					},
				}
				router := newBillingRouter(rs, nil, "u1")

				recorder := postJSON(t, router, "/api/v1/billing/redeem-gift-code", map[string]string{"code": "X"})

				require.Equal(t, tc.status, recorder.Code)
				var resp api.ErrorResponse
				require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
				assert.Equal(t, tc.message, resp.Error)
			})
		}
	})
}

func TestSelectPlan(t *testing.T) {
	t.Run("selects the free plan and returns the updated profile", func(t *testing.T) {
		ps := &fakeProfileService{
			selectPlanFn: func(_ context.Context, userID string) (*models.Profile, error) {
				assert.Equal(t, "u1", userID)
				profile := models.NewDefaultProfile("u1", "a@b.com", time.Now().UTC())
				profile.PlanSelected = true
				return profile, nil
			},
		}
		router := newBillingRouter(nil, ps, "u1")

		recorder := postJSON(t, router, "/api/v1/billing/select-plan", struct{}{})

		require.Equal(t, http.StatusOK, recorder.Code)
		var resp api.ProfileResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Profile.PlanSelected)
	})

	t.Run("repeat selection answers 409", func(t *testing.T) {
		ps := &fakeProfileService{
			selectPlanFn: func(context.Context, string) (*models.Profile, error) {
				return nil, core.ErrPlanAlreadySelected
			},
		}
		router := newBillingRouter(nil, ps, "u1")

		recorder := postJSON(t, router, "/api/v1/billing/select-plan", struct{}{})

		require.Equal(t, http.StatusConflict, recorder.Code)
		var resp api.ErrorResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.Equal(t, "You have already selected a plan.", resp.Error)
	})

	t.Run("missing profile answers 404", func(t *testing.T) {
		ps := &fakeProfileService{
			selectPlanFn: func(context.Context, string) (*models.Profile, error) {
				return nil, core.ErrProfileNotFound
			},
		}
		router := newBillingRouter(nil, ps, "u1")

		recorder := postJSON(t, router, "/api/v1/billing/select-plan", struct{}{})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("missing user context answers 401", func(t *testing.T) {
		router := newBillingRouter(nil, &fakeProfileService{}, "")

		recorder := postJSON(t, router, "/api/v1/billing/select-plan", struct{}{})
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
