package ports

import "context"

// RemoteGeocoder resolves free-text addresses to coordinates through an
// external geocoding capability. region is a bias hint ("sg", "my") that
// makes the remote service prefer matches within that country. A lookup
// miss is (found=false, err=nil); transport failures and timeouts come
// back as errors and are never fatal to the caller.
type RemoteGeocoder interface {
	Geocode(ctx context.Context, address, region string) (lat, lng float64, found bool, err error)
}
