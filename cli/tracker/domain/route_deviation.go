package domain

import (
	"fmt"
	"time"

	"github.com/daniil11ru/fleettrack/cli/tracker/repository"
	"github.com/daniil11ru/fleettrack/cli/tracker/types"
	"github.com/daniil11ru/fleettrack/libs/geo"
	log "github.com/sirupsen/logrus"
)

// DefaultDeviationThresholdM is the distance beyond which a truck counts as
// off its planned route.
const DefaultDeviationThresholdM = 500.0

type Deviation struct {
	IsDeviating        bool    `json:"is_deviating"`
	DistanceFromRouteM float64 `json:"distance_from_route_m"`
}

// MeasureDeviation returns the minimum distance from pos to the planned path
// (checkpoints and the segments between consecutive checkpoints). An empty
// path never deviates.
func MeasureDeviation(pos geo.Point, path []types.Checkpoint, thresholdM float64) Deviation {
	if len(path) == 0 {
		return Deviation{IsDeviating: false, DistanceFromRouteM: 0}
	}

	minDistance := geo.Distance(pos, path[0].Position)
	for i := range path {
		if d := geo.Distance(pos, path[i].Position); d < minDistance {
			minDistance = d
		}
		if i < len(path)-1 {
			if d := geo.PointToSegmentDistance(pos, path[i].Position, path[i+1].Position); d < minDistance {
				minDistance = d
			}
		}
	}

	return Deviation{
		IsDeviating:        minDistance > thresholdM,
		DistanceFromRouteM: minDistance,
	}
}

// EpisodeTracker drives the two-state deviation machine per (truck, route):
// opens an episode on the first threshold crossing, ratchets its max distance
// while the truck stays out, and closes it on return. The open-episode record
// in the store is the machine's state.
type EpisodeTracker struct {
	Repository repository.Fleet
}

// Track applies one measurement to the episode lifecycle. It reports the
// episode transition, if any, so the caller can publish change events.
func (t *EpisodeTracker) Track(truckID, routeID int64, dev Deviation, now time.Time) (*types.DeviationEpisode, types.ChangeAction, error) {
	open, err := t.Repository.GetOpenEpisode(truckID, routeID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up open episode for truck %d: %w", truckID, err)
	}

	switch {
	case open == nil && dev.IsDeviating:
		ep := types.DeviationEpisode{
			TruckID:      truckID,
			RouteID:      routeID,
			StartTS:      now,
			MaxDistanceM: dev.DistanceFromRouteM,
		}
		id, err := t.Repository.OpenEpisode(ep)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open deviation episode for truck %d: %w", truckID, err)
		}
		if id == 0 {
			// Lost a race to a concurrent writer; its episode stands.
			return nil, "", nil
		}
		ep.ID = id
		log.Warnf("Truck %d deviated from route %d: %.0f m from planned path", truckID, routeID, dev.DistanceFromRouteM)
		return &ep, types.ActionCreated, nil

	case open != nil && dev.IsDeviating:
		if dev.DistanceFromRouteM > open.MaxDistanceM {
			if err := t.Repository.UpdateEpisodeMaxDistance(open.ID, dev.DistanceFromRouteM); err != nil {
				return nil, "", fmt.Errorf("failed to update episode %d: %w", open.ID, err)
			}
			open.MaxDistanceM = dev.DistanceFromRouteM
			return open, types.ActionUpdated, nil
		}
		return nil, "", nil

	case open != nil && !dev.IsDeviating:
		if err := t.Repository.CloseEpisode(open.ID, now); err != nil {
			return nil, "", fmt.Errorf("failed to close episode %d: %w", open.ID, err)
		}
		ts := now
		open.EndTS = &ts
		log.Infof("Truck %d returned to route %d, episode %d closed (max %.0f m)", truckID, routeID, open.ID, open.MaxDistanceM)
		return open, types.ActionUpdated, nil

	default:
		return nil, "", nil
	}
}
