package weather

import "context"

type UseCase interface {
	// UpdateAllCities fetches every configured city once, in order, and stores
	// one record per successful reading. Per city failures are logged and do
	// not stop the cycle; only cancellation of ctx is returned.
	UpdateAllCities(ctx context.Context, requestID string) error
}
