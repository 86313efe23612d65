package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/rokso/pf-auctions/native/auction"
)

func TestCollectorTracksLifecycle(t *testing.T) {
	c := Engine()
	require.Same(t, c, Engine())

	createdBefore := testutil.ToFloat64(c.created)
	openBefore := testutil.ToFloat64(c.open)

	c.Emit(&auction.AuctionCreated{ID: 1})
	c.Emit(&auction.AuctionCreated{ID: 2})
	c.Emit(&auction.AuctionWon{ID: 1})
	c.Emit(&auction.AuctionStopped{ID: 2})
	c.Emit(&auction.CollectionCreated{ID: 1})

	require.Equal(t, createdBefore+2, testutil.ToFloat64(c.created))
	require.Equal(t, openBefore, testutil.ToFloat64(c.open))
	require.GreaterOrEqual(t, testutil.ToFloat64(c.won), float64(1))
	require.GreaterOrEqual(t, testutil.ToFloat64(c.stopped), float64(1))
	require.GreaterOrEqual(t, testutil.ToFloat64(c.collections), float64(1))
}
