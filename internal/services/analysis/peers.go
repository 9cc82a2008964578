package analysis

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// CompareToPeers combines the user's spending for month with the average
// of their gender and age group. The two requests run concurrently and
// fail independently: without user data the outcome is NoUserData, and
// without peer data the user's series is returned with zero peer amounts.
func (c *Controller) CompareToPeers(ctx context.Context, month string) Outcome {
	out := c.begin(OpPeers, peersKey(month), month)

	if err := ValidateMonth(month); err != nil {
		return fail(out, err, err.Error())
	}

	profile, err := c.api.UserInfo(ctx)
	if err != nil {
		return classify(out, err, msgProfileFailed)
	}

	gender, ageGroup, err := profile.PeerGroup(c.now())
	if err != nil {
		return fail(out, err, msgProfileMissing)
	}

	var (
		user    models.SpendingSnapshot
		peer    *models.PeerAggregate
		userErr error
		peerErr error
	)

	// Each branch records its own error and returns nil so that neither
	// cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		user, userErr = c.api.RawSpending(ctx, month)
		return nil
	})
	g.Go(func() error {
		peer, peerErr = c.api.PeerAggregate(ctx, gender, ageGroup)
		return nil
	})
	_ = g.Wait()

	if userErr != nil {
		if errors.Is(userErr, api.ErrUnauthorized) {
			return classify(out, userErr, msgUnauthorized)
		}
		if !errors.Is(userErr, api.ErrNotFound) {
			logger.Warn("user spending unavailable", "month", month, "error", userErr)
		}
		out.Kind = KindNoUserData
		out.Err = userErr
		out.Message = msgNoUserData
		return out
	}
	if len(user) == 0 {
		out.Kind = KindNoUserData
		out.Message = msgNoUserData
		return out
	}

	peerMissing := peerErr != nil || peer == nil || len(peer.CategoryAverageSpending) == 0
	if peerErr != nil && !errors.Is(peerErr, api.ErrNotFound) {
		logger.Warn("peer averages unavailable", "gender", gender, "age_group", ageGroup, "error", peerErr)
	}

	result := &models.PeerComparison{
		Month:       month,
		Gender:      gender,
		AgeGroup:    ageGroup,
		PeerMissing: peerMissing,
	}
	if peerMissing {
		result.Rows = models.CombineSpending(user, nil)
	} else {
		result.Rows = models.CombineSpending(user, peer)
		result.UserCount = peer.UserCount
	}

	out.Peers = result
	if peerMissing {
		out.Kind = KindNoPeerData
		out.Err = peerErr
		out.Message = msgNoPeerData
		return out
	}
	out.Kind = KindSuccess
	return out
}
