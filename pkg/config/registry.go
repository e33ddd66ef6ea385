package config

// Persistent state keys (Registry)
//
// The sensitivity preset key lives in pkg/preset (it is the contract
// with sibling contexts); the keys below are runtime overrides for the
// static radar section.
const (
	KeySiteLat        = "site_lat"
	KeySiteLon        = "site_lon"
	KeyCellResolution = "cell_resolution"
	KeyRangeRingUnits = "range_ring_units"
)
