package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/gbguki/modelcutAI/internal/domain"
	"github.com/gbguki/modelcutAI/internal/providers/fashion"
	"github.com/gbguki/modelcutAI/internal/store"
)

// Controller owns the authoritative in-memory workspace state and mediates
// every state-changing action. Mutations happen under one mutex; network
// calls run outside it and their results are merged into the latest state,
// never into a stale captured copy. A second save, update or generation
// while one is in flight is rejected rather than queued.
type Controller struct {
	mu    sync.Mutex
	state State
	owner string

	serializer *Serializer
	gateway    store.Gateway
	generator  fashion.Generator
	fetcher    ImageFetcher
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewController wires the controller to its collaborators. owner is the
// registered display name, empty when registration has not happened yet.
func NewController(serializer *Serializer, gateway store.Gateway, generator fashion.Generator, fetcher ImageFetcher, owner string, logger zerolog.Logger) *Controller {
	return &Controller{
		state:      newState(),
		owner:      strings.TrimSpace(owner),
		serializer: serializer,
		gateway:    gateway,
		generator:  generator,
		fetcher:    fetcher,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return ulid.Make().String() },
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// Owner returns the registered display name.
func (c *Controller) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// SetOwner records the registered display name for subsequent saves.
func (c *Controller) SetOwner(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.owner = strings.TrimSpace(name)
}

// SetBaseImage replaces the base image and marks the workspace dirty. The
// reference must carry exactly one payload: a URL or inline data.
func (c *Controller) SetBaseImage(ref domain.ImageRef) (State, error) {
	if ref.URL == "" && ref.InlineData == "" {
		return State{}, domain.Validationf("base image carries no payload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ref.ID == "" {
		ref.ID = c.newID()
	}
	c.state = withBaseImage(c.state, &ref)
	return cloneState(c.state), nil
}

// ClearBaseImage removes the base image and marks the workspace dirty.
func (c *Controller) ClearBaseImage() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = withBaseImage(c.state, nil)
	return cloneState(c.state)
}

// AddProductImage appends a product image, capped at MaxProductImages.
func (c *Controller) AddProductImage(ref domain.ImageRef) (State, error) {
	if ref.URL == "" && ref.InlineData == "" {
		return State{}, domain.Validationf("product image carries no payload")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.state.Workspace.ProductImages) >= domain.MaxProductImages {
		return State{}, domain.Validationf("up to %d product images are allowed", domain.MaxProductImages)
	}
	if ref.ID == "" {
		ref.ID = c.newID()
	}
	c.state = withProductAdded(c.state, ref)
	return cloneState(c.state), nil
}

// RemoveProductImage drops the product image at the given position.
func (c *Controller) RemoveProductImage(index int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Workspace.ProductImages) {
		return State{}, domain.Validationf("product image index %d out of range", index)
	}
	c.state = withProductRemoved(c.state, index)
	return cloneState(c.state), nil
}

// SelectVersion moves the active version pointer. The index must satisfy the
// history invariant: a valid position, or -1 when history is empty.
func (c *Controller) SelectVersion(index int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := c.state.Workspace.History
	if len(history) == 0 {
		if index != -1 {
			return State{}, domain.Validationf("history is empty")
		}
	} else if index < 0 || index >= len(history) {
		return State{}, domain.Validationf("version index %d out of range", index)
	}
	c.state = withActiveVersion(c.state, index)
	return cloneState(c.state), nil
}

// NewProject resets the editor to an empty workspace. With unsaved changes
// present the reset is deferred and recorded as the pending action; the
// returned flag reports whether confirmation is required.
func (c *Controller) NewProject() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Dirty && c.state.Workspace.HasContent() {
		c.state.Pending = &PendingAction{Kind: PendingNewProject}
		return cloneState(c.state), true
	}
	c.state = resetProject(c.state)
	return cloneState(c.state), false
}

// LoadWorkspace replaces the editor content with a catalog record. With
// unsaved changes present the load is deferred like NewProject.
func (c *Controller) LoadWorkspace(id string) (State, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Dirty && c.state.Workspace.HasContent() {
		c.state.Pending = &PendingAction{Kind: PendingLoadWorkspace, WorkspaceID: id}
		return cloneState(c.state), true, nil
	}
	return c.loadLocked(id)
}

func (c *Controller) loadLocked(id string) (State, bool, error) {
	for _, ws := range c.state.Catalog {
		if ws.ID == id {
			c.state = applyLoad(c.state, cloneWorkspace(ws))
			return cloneState(c.state), false, nil
		}
	}
	c.state.Pending = nil
	return State{}, false, domain.NotFoundf("workspace %s not found", id)
}

// Confirm resolves the pending action. discard=true executes it, dropping
// the unsaved changes; discard=false cancels it and leaves all other state
// untouched.
func (c *Controller) Confirm(discard bool) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.state.Pending
	if pending == nil {
		return State{}, domain.Validationf("no action awaiting confirmation")
	}
	if !discard {
		c.state.Pending = nil
		return cloneState(c.state), nil
	}
	switch pending.Kind {
	case PendingNewProject:
		c.state = resetProject(c.state)
		return cloneState(c.state), nil
	case PendingLoadWorkspace:
		state, _, err := c.loadLocked(pending.WorkspaceID)
		return state, err
	}
	c.state.Pending = nil
	return State{}, domain.Validationf("unknown pending action %q", pending.Kind)
}

// SaveNew serializes the current workspace under a fresh local identifier,
// creates the store record and adopts the store-assigned id. Requires a
// name, a registered owner and some content.
func (c *Controller) SaveNew(ctx context.Context, name string) (State, error) {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return State{}, domain.Busyf("another save or generation is in flight")
	}
	if name == "" {
		c.mu.Unlock()
		return State{}, domain.Validationf("workspace name is required")
	}
	if c.owner == "" {
		c.mu.Unlock()
		return State{}, domain.Validationf("owner identity is not registered")
	}
	if !c.state.Workspace.HasContent() {
		c.mu.Unlock()
		return State{}, domain.Validationf("no content to save")
	}
	snapshot := cloneWorkspace(c.state.Workspace)
	snapshot.ID = c.newID()
	snapshot.Name = name
	snapshot.Owner = c.owner
	c.state.InFlight = true
	c.mu.Unlock()

	doc, catalog, storeID, err := c.persist(ctx, snapshot, "")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.InFlight = false
	c.state.LastProgress = nil
	if err != nil {
		return State{}, err
	}
	c.state.Workspace.ID = snapshot.ID
	c.state.Workspace.Name = snapshot.Name
	c.state.Workspace.Owner = snapshot.Owner
	c.applyExternalized(doc)
	c.state = withSaved(c.state, storeID, catalog)
	c.logger.Info().Str("workspace_id", storeID).Str("name", name).Msg("workspace: saved new")
	return cloneState(c.state), nil
}

// UpdateCurrent re-serializes the loaded workspace and merges it over its
// store record. Fails validation when nothing is loaded or the loaded id is
// no longer present in the catalog.
func (c *Controller) UpdateCurrent(ctx context.Context) (State, error) {
	c.mu.Lock()
	if c.state.InFlight {
		c.mu.Unlock()
		return State{}, domain.Busyf("another save or generation is in flight")
	}
	id := c.state.CurrentWorkspaceID
	if id == "" {
		c.mu.Unlock()
		return State{}, domain.Validationf("no workspace is loaded")
	}
	if !c.inCatalogLocked(id) {
		c.mu.Unlock()
		return State{}, domain.Validationf("workspace %s is no longer in the catalog", id)
	}
	snapshot := cloneWorkspace(c.state.Workspace)
	c.state.InFlight = true
	c.mu.Unlock()

	doc, catalog, _, err := c.persist(ctx, snapshot, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.InFlight = false
	c.state.LastProgress = nil
	if err != nil {
		return State{}, err
	}
	c.applyExternalized(doc)
	c.state = withSaved(c.state, id, catalog)
	c.logger.Info().Str("workspace_id", id).Msg("workspace: updated")
	return cloneState(c.state), nil
}

// Delete removes a store record. Hosted images referenced by it are left in
// place. Deleting the loaded workspace unlinks the editor from the store but
// keeps the in-memory content.
func (c *Controller) Delete(ctx context.Context, id string) (State, error) {
	if err := c.gateway.Delete(ctx, id); err != nil {
		return State{}, err
	}
	catalog, err := c.gateway.List(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Warn().Err(err).Msg("workspace: catalog refresh after delete failed")
	} else {
		c.state.Catalog = catalog
	}
	if c.state.CurrentWorkspaceID == id {
		c.state.CurrentWorkspaceID = ""
	}
	c.logger.Info().Str("workspace_id", id).Msg("workspace: deleted")
	return cloneState(c.state), nil
}

// RefreshCatalog re-lists the store. A failure leaves the current catalog in
// place; startup callers may tolerate it and start with an empty catalog.
func (c *Controller) RefreshCatalog(ctx context.Context) (State, error) {
	catalog, err := c.gateway.List(ctx)
	if err != nil {
		return State{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Catalog = catalog
	return cloneState(c.state), nil
}

// persist serializes the snapshot and writes it to the store. An empty id
// creates a new record and returns the store-assigned identifier; otherwise
// the fields merge over the existing record. The catalog re-list failing
// after a successful write is logged and tolerated.
func (c *Controller) persist(ctx context.Context, snapshot domain.Workspace, id string) (*store.Document, []domain.Workspace, string, error) {
	doc, err := c.serializer.Serialize(ctx, snapshot, c.recordProgress)
	if err != nil {
		return nil, nil, "", err
	}

	c.recordProgress(Progress{Phase: PhasePersisting})
	storeID := id
	if id == "" {
		storeID, err = c.gateway.Create(ctx, doc)
	} else {
		var fields map[string]any
		fields, err = doc.Fields()
		if err != nil {
			return nil, nil, "", domain.Storef("encode workspace document: %v", err)
		}
		err = c.gateway.Update(ctx, id, fields)
	}
	if err != nil {
		return nil, nil, "", err
	}

	c.recordProgress(Progress{Phase: PhaseRefreshingCatalog})
	catalog, err := c.gateway.List(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("workspace: catalog refresh after save failed")
		catalog = nil
	}
	return doc, catalog, storeID, nil
}

func (c *Controller) recordProgress(p Progress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastProgress = &p
}

// applyExternalized folds the uploaded URLs back into the live state so a
// follow-up save does not re-upload payloads that are already hosted. Images
// added or removed while the save was in flight keep their in-memory form.
func (c *Controller) applyExternalized(doc *store.Document) {
	if doc.BaseImage != nil && c.state.Workspace.BaseImage != nil && c.state.Workspace.BaseImage.ID == doc.BaseImage.ID {
		base := *doc.BaseImage
		c.state.Workspace.BaseImage = &base
	}
	hosted := make(map[string]domain.ImageRef, len(doc.ProductImages))
	for _, ref := range doc.ProductImages {
		hosted[ref.ID] = ref
	}
	products := cloneRefs(c.state.Workspace.ProductImages)
	for i, ref := range products {
		if externalized, ok := hosted[ref.ID]; ok {
			products[i] = externalized
		}
	}
	c.state.Workspace.ProductImages = products

	urls := make(map[string]string, len(doc.History))
	for _, result := range doc.History {
		urls[result.ID] = result.ImageURL
	}
	history := cloneResults(c.state.Workspace.History)
	for i, result := range history {
		if url, ok := urls[result.ID]; ok {
			history[i].ImageURL = url
		}
	}
	c.state.Workspace.History = history
}

func (c *Controller) inCatalogLocked(id string) bool {
	for _, ws := range c.state.Catalog {
		if ws.ID == id {
			return true
		}
	}
	return false
}
