package workspace

import "github.com/gbguki/modelcutAI/internal/domain"

// PendingKind tags the deferred action awaiting confirmation.
type PendingKind string

const (
	PendingNewProject    PendingKind = "new_project"
	PendingLoadWorkspace PendingKind = "load_workspace"
)

// PendingAction is a workspace-affecting action that was deferred because
// unsaved changes would be lost. WorkspaceID is set for load actions only.
type PendingAction struct {
	Kind        PendingKind `json:"kind"`
	WorkspaceID string      `json:"workspaceId,omitempty"`
}

// State is the controller's complete view of the editor: the in-memory
// workspace, its link to the store, the unsaved-changes flag, the deferred
// action and the fetched catalog. All transitions are pure functions from
// (State, inputs) to a new State; the controller alone applies them.
type State struct {
	Workspace          domain.Workspace   `json:"workspace"`
	CurrentWorkspaceID string             `json:"currentWorkspaceId,omitempty"`
	Dirty              bool               `json:"dirty"`
	InFlight           bool               `json:"inFlight"`
	Pending            *PendingAction     `json:"pending,omitempty"`
	LastProgress       *Progress          `json:"lastProgress,omitempty"`
	Catalog            []domain.Workspace `json:"catalog"`
}

func newState() State {
	s := State{}
	s.Workspace.ActiveVersionIndex = -1
	s.Workspace.Normalize()
	s.Catalog = []domain.Workspace{}
	return s
}

// resetProject clears the editor back to an empty, unsaved workspace. The
// catalog and owner survive the reset.
func resetProject(s State) State {
	owner := s.Workspace.Owner
	s.Workspace = domain.Workspace{Owner: owner, ActiveVersionIndex: -1}
	s.Workspace.Normalize()
	s.CurrentWorkspaceID = ""
	s.Dirty = false
	s.Pending = nil
	return s
}

// applyLoad replaces the editor content with a catalog record.
func applyLoad(s State, ws domain.Workspace) State {
	ws.Normalize()
	s.Workspace = ws
	s.CurrentWorkspaceID = ws.ID
	s.Dirty = false
	s.Pending = nil
	return s
}

func withBaseImage(s State, ref *domain.ImageRef) State {
	s.Workspace.BaseImage = ref
	s.Dirty = true
	return s
}

func withProductAdded(s State, ref domain.ImageRef) State {
	s.Workspace.ProductImages = append(cloneRefs(s.Workspace.ProductImages), ref)
	s.Dirty = true
	return s
}

func withProductRemoved(s State, index int) State {
	products := cloneRefs(s.Workspace.ProductImages)
	s.Workspace.ProductImages = append(products[:index], products[index+1:]...)
	s.Dirty = true
	return s
}

func withActiveVersion(s State, index int) State {
	s.Workspace.ActiveVersionIndex = index
	return s
}

// withResult appends a generation result and advances the active version to
// it, preserving the history index invariant.
func withResult(s State, result domain.GenerationResult) State {
	s.Workspace.History = append(cloneResults(s.Workspace.History), result)
	s.Workspace.ActiveVersionIndex = len(s.Workspace.History) - 1
	s.Dirty = true
	return s
}

// withSaved records a successful save or update: the workspace is now the
// store's copy and the catalog reflects the fresh listing.
func withSaved(s State, storeID string, catalog []domain.Workspace) State {
	s.CurrentWorkspaceID = storeID
	s.Dirty = false
	if catalog != nil {
		s.Catalog = catalog
	}
	return s
}

func cloneState(s State) State {
	out := s
	out.Workspace = cloneWorkspace(s.Workspace)
	out.Catalog = make([]domain.Workspace, len(s.Catalog))
	for i, ws := range s.Catalog {
		out.Catalog[i] = cloneWorkspace(ws)
	}
	if s.Pending != nil {
		pending := *s.Pending
		out.Pending = &pending
	}
	if s.LastProgress != nil {
		progress := *s.LastProgress
		out.LastProgress = &progress
	}
	return out
}

func cloneWorkspace(ws domain.Workspace) domain.Workspace {
	out := ws
	if ws.BaseImage != nil {
		base := *ws.BaseImage
		out.BaseImage = &base
	}
	out.ProductImages = cloneRefs(ws.ProductImages)
	out.History = cloneResults(ws.History)
	return out
}

func cloneRefs(refs []domain.ImageRef) []domain.ImageRef {
	out := make([]domain.ImageRef, len(refs))
	copy(out, refs)
	return out
}

func cloneResults(results []domain.GenerationResult) []domain.GenerationResult {
	out := make([]domain.GenerationResult, len(results))
	copy(out, results)
	return out
}
