package limits

// Region is one rectangular (v1,i1)-(v2,i2) cell of a device's
// safe-operating-area description, tagged with an integer id.
type Region struct {
	ID     int32
	V1, I1 float64
	V2, I2 float64
}

// RegionMap is the union of Regions for one device, plus optional
// exclusion sublimits applied to any envelope it returns.
type RegionMap struct {
	excludeV *NumberLimit
	excludeI *NumberLimit
	regions  []Region
}

// NewRegionMap constructs a RegionMap. excludeV may be nil (no voltage
// exclusion); excludeI is required, matching the source's asymmetric
// current-exclusion default.
func NewRegionMap(excludeV, excludeI *NumberLimit) *RegionMap {
	return &RegionMap{excludeV: excludeV, excludeI: excludeI}
}

// AddRegion appends a rectangular region to the map.
func (r *RegionMap) AddRegion(id int32, v1, i1, v2, i2 float64) {
	r.regions = append(r.regions, Region{ID: id, V1: v1, I1: i1, V2: v2, I2: i2})
}

// GetCurrentLimit returns the least-restrictive current envelope (the union
// of all regions whose voltage span contains value), with the current
// exclusion sublimit attached.
func (r *RegionMap) GetCurrentLimit(value float64) *NumberLimit {
	limit := Default()
	limit.SetSublimit(r.excludeI)

	first := true
	for _, region := range r.regions {
		if region.V1 <= value && value <= region.V2 {
			if first {
				first = false
				limit.SetMin(region.I1)
				limit.SetMax(region.I2)
			} else {
				limit.SetMin(min(region.I1, limit.GetMin()))
				limit.SetMax(max(region.I2, limit.GetMax()))
			}
		}
	}
	return limit
}

// GetVoltageLimit returns the least-restrictive voltage envelope (the union
// of all regions whose current span contains value), with the optional
// voltage exclusion sublimit attached.
func (r *RegionMap) GetVoltageLimit(value float64) *NumberLimit {
	limit := Default()
	if r.excludeV != nil {
		limit.SetSublimit(r.excludeV)
	}

	first := true
	for _, region := range r.regions {
		if region.I1 <= value && value <= region.I2 {
			if first {
				first = false
				limit.SetMin(region.V1)
				limit.SetMax(region.V2)
			} else {
				limit.SetMin(min(region.V1, limit.GetMin()))
				limit.SetMax(max(region.V2, limit.GetMax()))
			}
		}
	}
	return limit
}

// FindRegion returns the id of the region containing (vpoint, ipoint), or -1.
func (r *RegionMap) FindRegion(vpoint, ipoint float64) int32 {
	for _, region := range r.regions {
		if region.V1 <= vpoint && region.I1 <= ipoint &&
			vpoint <= region.V2 && ipoint <= region.I2 {
			return region.ID
		}
	}
	return -1
}
