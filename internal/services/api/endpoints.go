package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/j-veylop/spending-dashboard-tui/internal/config"
	"github.com/j-veylop/spending-dashboard-tui/internal/models"
)

const (
	analysisPath      = "/api/analysis"
	peerComparePath   = "/api/aggregated-spending/compare"
	userInfoPath      = "/user/info"
	notificationsPath = "/api/notifications"
)

// LatestAnalysis returns the user's most recent analysis. An empty JSON
// object yields a zero record.
func (c *Client) LatestAnalysis(ctx context.Context) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := c.getJSON(ctx, analysisPath+"/latest", nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// MonthAnalysis returns the latest analysis version stored for month.
func (c *Client) MonthAnalysis(ctx context.Context, month string) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := c.getJSON(ctx, analysisPath+"/"+url.PathEscape(month), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// RequestAnalysis asks the server to generate a new analysis for month.
// The server answers with the result object itself.
func (c *Client) RequestAnalysis(ctx context.Context, month string) (*models.AnalysisResult, error) {
	resp, err := c.do(ctx, http.MethodPost, analysisPath+"/"+url.PathEscape(month), nil, "application/json")
	if err != nil {
		return nil, err
	}
	result, err := models.DecodeResult(bytes.TrimSpace(resp.body))
	if err != nil {
		return nil, &StatusError{StatusCode: resp.status, Message: fmt.Sprintf("failed to parse analysis: %v", err)}
	}
	return result, nil
}

// DeleteAnalysis removes every analysis version for month. Only 204 counts
// as success.
func (c *Client) DeleteAnalysis(ctx context.Context, month string) error {
	resp, err := c.do(ctx, http.MethodDelete, analysisPath+"/"+url.PathEscape(month), nil, "*/*")
	if err != nil {
		return err
	}
	if resp.status != http.StatusNoContent {
		return newStatusError(resp.status, resp.body)
	}
	return nil
}

// AnalysisHistory lists the versions stored for month in server order.
func (c *Client) AnalysisHistory(ctx context.Context, month string) ([]models.AnalysisRecord, error) {
	var records []models.AnalysisRecord
	q := url.Values{"yearMonth": {month}}
	if err := c.getJSON(ctx, analysisPath+"/history", q, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AnalysisByID fetches one analysis version.
func (c *Client) AnalysisByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	var rec models.AnalysisRecord
	if err := c.getJSON(ctx, analysisPath+"/id/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CompareAnalyses asks the server to diff id1 (newer) against id2. The
// server reports lookup failures as a 200 with an "error" field.
func (c *Client) CompareAnalyses(ctx context.Context, id1, id2 string) (*models.ComparisonResult, error) {
	var cmp models.ComparisonResult
	q := url.Values{"analysisId1": {id1}, "analysisId2": {id2}}
	if err := c.getJSON(ctx, analysisPath+"/compare", q, &cmp); err != nil {
		return nil, err
	}
	if cmp.Error != "" {
		return nil, &StatusError{StatusCode: http.StatusOK, Message: cmp.Error}
	}
	if cmp.Differences == nil {
		cmp.Differences = map[string]models.FieldDiff{}
	}
	return &cmp, nil
}

// RawSpending returns the user's per-category spending for month.
func (c *Client) RawSpending(ctx context.Context, month string) (models.SpendingSnapshot, error) {
	var snapshot models.SpendingSnapshot
	if err := c.getJSON(ctx, analysisPath+"/"+url.PathEscape(month)+"/raw-spending", nil, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// PeerAggregate returns average spending for a gender and age group.
func (c *Client) PeerAggregate(ctx context.Context, gender, ageGroup string) (*models.PeerAggregate, error) {
	var agg models.PeerAggregate
	q := url.Values{"gender": {gender}, "ageGroup": {ageGroup}}
	if err := c.getJSON(ctx, peerComparePath, q, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// UserInfo returns the signed-in user's profile.
func (c *Client) UserInfo(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.getJSON(ctx, userInfoPath, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Prediction returns the next-month spending forecast.
func (c *Client) Prediction(ctx context.Context) (*models.Prediction, error) {
	var p models.Prediction
	if err := c.getJSON(ctx, analysisPath+"/prediction", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Notifications lists all notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := c.getJSON(ctx, notificationsPath, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var count json.Number
	if err := c.getJSON(ctx, notificationsPath+"/unread/count", nil, &count); err != nil {
		return 0, err
	}
	n, err := count.Int64()
	if err != nil {
		return 0, &StatusError{StatusCode: http.StatusOK, Message: fmt.Sprintf("invalid unread count %q", count)}
	}
	return n, nil
}

// MarkNotificationRead marks one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPut, notificationsPath+"/"+strconv.FormatInt(id, 10)+"/read", nil, "*/*")
	return err
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPut, notificationsPath+"/read-all", nil, "*/*")
	return err
}

// PageMetadata loads an HTML page and extracts its anti-forgery meta tags.
func (c *Client) PageMetadata(ctx context.Context, path string) (*config.PageMetadata, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "text/html")
	if err != nil {
		return nil, err
	}
	meta := config.ParsePageMetadata(string(resp.body))
	if meta == nil {
		return nil, fmt.Errorf("no csrf meta tags found at %s", path)
	}
	return meta, nil
}
