package gate

import (
	"net/http"

	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/plans"
)

// RequireQuota reserves one unit of feature before calling next. Over quota
// the request is answered with 429 and next never runs; failing to decide
// answers 500. Must run after RequireUser.
func (s *Server) RequireQuota(feature plans.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := UserIDFromContext(ctx)

			res, err := s.entitlements.CheckAndReserve(ctx, userID, feature)
			if err != nil {
				s.log.ErrorContext(ctx, "quota check failed",
					logger.UserID(userID),
					logger.Feature(feature),
					logger.Error(err),
				)
				_ = Fail(ErrInternal).Render(w, r)
				return
			}

			setUsageHeaders(w, res)
			if !res.Allowed {
				s.log.InfoContext(ctx, "usage limit reached",
					logger.UserID(userID),
					logger.Feature(feature),
					logger.PlanID(res.PlanID),
					logger.Period(res.Period),
				)
				_ = Fail(limitExceeded(feature)).Render(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithResult(ctx, res)))
		})
	}
}

// reservation answers a metered action with the reservation made for it.
// The action itself runs in the caller's downstream service.
func reservation(r *http.Request) Response {
	res, ok := ResultFromContext(r.Context())
	if !ok {
		return Fail(ErrInternal)
	}
	return JSON(http.StatusOK, res)
}
