package fetcher

import (
	"context"
	"errors"
	"maps"
	"strconv"
	"sync"

	"github.com/Dpatt168/RoGrouper-sub001/pkg/utils"
	"github.com/jaxron/roapi.go/pkg/api"
	"github.com/jaxron/roapi.go/pkg/api/middleware/auth"
	"github.com/jaxron/roapi.go/pkg/api/resources/thumbnails"
	apiTypes "github.com/jaxron/roapi.go/pkg/api/types"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ErrPendingThumbnails is an error returned when some thumbnails are still pending.
var ErrPendingThumbnails = errors.New("some thumbnails still pending")

// ThumbnailFetcher handles retrieval of user avatar thumbnails from the Roblox API.
type ThumbnailFetcher struct {
	roAPI  *api.API
	logger *zap.Logger
}

// NewThumbnailFetcher creates a ThumbnailFetcher with the provided API client and logger.
func NewThumbnailFetcher(roAPI *api.API, logger *zap.Logger) *ThumbnailFetcher {
	return &ThumbnailFetcher{
		roAPI:  roAPI,
		logger: logger.Named("thumbnail_fetcher"),
	}
}

// GetUserHeadshots fetches avatar headshots for a batch of users and returns
// a map of user id to image URL. Users whose thumbnails never complete are
// simply absent from the result.
func (t *ThumbnailFetcher) GetUserHeadshots(ctx context.Context, userIDs []uint64) map[uint64]string {
	requests := thumbnails.NewBatchThumbnailsBuilder()
	for _, id := range userIDs {
		requests.AddRequest(apiTypes.ThumbnailRequest{
			Type:      apiTypes.AvatarHeadShotType,
			TargetID:  id,
			RequestID: strconv.FormatUint(id, 10),
			Size:      apiTypes.Size420x420,
			Format:    apiTypes.WEBP,
		})
	}

	results := t.processBatchThumbnails(ctx, requests)

	t.logger.Debug("Finished fetching user headshots",
		zap.Int("totalUsers", len(userIDs)),
		zap.Int("successfulFetches", len(results)))

	return results
}

// processBatchThumbnails handles batched thumbnail requests, processing them
// in groups of 100. It returns a map of target IDs to their thumbnail URLs.
func (t *ThumbnailFetcher) processBatchThumbnails(
	ctx context.Context, requests *thumbnails.BatchThumbnailsBuilder,
) map[uint64]string {
	ctx = context.WithValue(ctx, auth.KeyAddCookie, true)

	var (
		requestList   = requests.Build()
		thumbnailURLs = make(map[uint64]string)
		p             = pool.New().WithContext(ctx)
		mu            sync.Mutex
		batchSize     = 100
	)

	// Process batches concurrently
	for i := 0; i < len(requestList.Requests); i += batchSize {
		p.Go(func(ctx context.Context) error {
			end := min(i+batchSize, len(requestList.Requests))
			batchRequests := requestList.Requests[i:end]

			initialBatch := thumbnails.NewBatchThumbnailsBuilder()
			for _, request := range batchRequests {
				initialBatch.AddRequest(request)
			}

			currentBatch := initialBatch.Build()
			_, err := utils.WithRetry(ctx, func() (map[uint64]string, error) {
				resp, err := t.roAPI.Thumbnails().GetBatchThumbnails(ctx, currentBatch)
				if err != nil {
					return nil, err
				}

				pendingRequests, results := t.processBatchResponse(resp.Data, currentBatch.Requests)
				mu.Lock()
				maps.Copy(thumbnailURLs, results)
				mu.Unlock()

				// If there are still pending requests, return error to trigger retry
				currentBatch = pendingRequests.Build()
				if len(currentBatch.Requests) > 0 {
					return nil, ErrPendingThumbnails
				}

				return results, nil
			}, utils.GetThumbnailRetryOptions())
			if err != nil {
				t.logger.Warn("Failed to fetch thumbnails after retries",
					zap.Error(err),
					zap.Int("batchStart", i),
					zap.Int("pendingCount", len(currentBatch.Requests)))
			}

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		t.logger.Error("Error during thumbnail processing", zap.Error(err))
	}

	return thumbnailURLs
}

// processBatchResponse splits a batch response into completed URLs and
// requests that are still pending upstream.
func (t *ThumbnailFetcher) processBatchResponse(
	responses []apiTypes.ThumbnailData, requests []apiTypes.ThumbnailRequest,
) (*thumbnails.BatchThumbnailsBuilder, map[uint64]string) {
	pendingRequests := thumbnails.NewBatchThumbnailsBuilder()
	results := make(map[uint64]string)

	requestMap := make(map[uint64]apiTypes.ThumbnailRequest, len(requests))
	for _, req := range requests {
		requestMap[req.TargetID] = req
	}

	for _, response := range responses {
		switch response.State {
		case apiTypes.ThumbnailStateCompleted:
			if response.ImageURL != nil {
				results[response.TargetID] = *response.ImageURL
			}
		case apiTypes.ThumbnailStatePending:
			if req, ok := requestMap[response.TargetID]; ok {
				pendingRequests.AddRequest(req)
			}
		default:
			// Blocked or errored thumbnails are dropped
		}
	}

	return pendingRequests, results
}
