package project

import "github.com/lightplayer/lightplayer/internal/model"

// GetChanges computes the delta since the given frame for selector, per
// spec.md §3.4: a NodeChange is emitted only when its corresponding
// version field is strictly greater than since, except that since==0 (the
// client's initial sync) always emits a StatusChanged for every node so
// the client can bootstrap full state.
func (r *Runtime) GetChanges(since model.FrameId, selector model.ApiNodeSpecifier) model.ProjectResponse {
	resp := model.ProjectResponse{
		CurrentFrame:   r.frameID,
		SinceFrame:     since,
		NodeHandles:    make([]model.NodeHandle, 0, len(r.nodes)),
		NodeDetails:    map[model.NodeHandle]model.NodeDetail{},
		TheoreticalFps: r.frameTime.TheoreticalFps(),
	}

	initialSync := since == 0
	wanted := r.wantedHandles(selector)

	for _, h := range sortedHandles(r.nodes) {
		e := r.nodes[h]
		resp.NodeHandles = append(resp.NodeHandles, h)

		if initialSync {
			resp.NodeChanges = append(resp.NodeChanges, model.NodeChange{Handle: h, Kind: model.ChangeStatusChanged})
		} else {
			if e.ConfigVer > since {
				resp.NodeChanges = append(resp.NodeChanges, model.NodeChange{Handle: h, Kind: model.ChangeConfigUpdated})
			}
			if e.StateVer > since {
				resp.NodeChanges = append(resp.NodeChanges, model.NodeChange{Handle: h, Kind: model.ChangeStateUpdated})
			}
			if e.StatusVer > since {
				resp.NodeChanges = append(resp.NodeChanges, model.NodeChange{Handle: h, Kind: model.ChangeStatusChanged})
			}
		}

		if wanted == nil {
			continue
		}
		if _, ok := wanted[h]; selector.Kind == model.SelectorAll || ok {
			resp.NodeDetails[h] = model.NodeDetail{
				Handle:    h,
				Path:      e.Path,
				Kind:      e.Kind,
				Status:    e.Status,
				ConfigVer: e.ConfigVer,
				StatusVer: e.StatusVer,
				StateVer:  e.StateVer,
			}
		}
	}

	return resp
}

// wantedHandles returns nil for SelectorNone (no details requested at
// all), and a (possibly empty for SelectorAll, used only as a sentinel)
// lookup set otherwise.
func (r *Runtime) wantedHandles(selector model.ApiNodeSpecifier) map[model.NodeHandle]struct{} {
	switch selector.Kind {
	case model.SelectorNone:
		return nil
	case model.SelectorAll:
		return map[model.NodeHandle]struct{}{}
	case model.SelectorByHandles:
		set := make(map[model.NodeHandle]struct{}, len(selector.Handles))
		for _, h := range selector.Handles {
			set[h] = struct{}{}
		}
		return set
	default:
		return nil
	}
}
