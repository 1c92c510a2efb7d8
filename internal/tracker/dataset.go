package tracker

import "errors"

// Dataset names used in logs and metric labels.
const (
	DatasetGroups = "groups"
	DatasetUsers  = "users"
)

// DatasetInterface is the slice of the Buffer one Flusher drives: dirty
// bookkeeping, shape validation for the on-disk file and the
// merge-and-swap step.
type DatasetInterface interface {
	Name() string
	Path() string
	Dirty() bool
	MarkDirty()
	Reconcile(diskTree map[string]any) ([]byte, error)
	Validate(tree map[string]any) error
	EmptyTree() map[string]any
}

type groupDataset struct {
	buffer *Buffer
}

func NewGroupDataset(buffer *Buffer) DatasetInterface {
	return &groupDataset{buffer: buffer}
}

func (d *groupDataset) Name() string { return DatasetGroups }
func (d *groupDataset) Path() string { return d.buffer.GroupDataPath() }
func (d *groupDataset) Dirty() bool  { return d.buffer.GroupsDirty() }
func (d *groupDataset) MarkDirty()   { d.buffer.MarkGroupsDirty() }

func (d *groupDataset) Reconcile(diskTree map[string]any) ([]byte, error) {
	return d.buffer.ReconcileGroups(diskTree)
}

func (d *groupDataset) Validate(tree map[string]any) error {
	if tree == nil {
		return errors.New("group dataset is not an object")
	}
	return nil
}

func (d *groupDataset) EmptyTree() map[string]any {
	return map[string]any{}
}

type userDataset struct {
	buffer *Buffer
}

func NewUserDataset(buffer *Buffer) DatasetInterface {
	return &userDataset{buffer: buffer}
}

func (d *userDataset) Name() string { return DatasetUsers }
func (d *userDataset) Path() string { return d.buffer.UserDataPath() }
func (d *userDataset) Dirty() bool  { return d.buffer.UsersDirty() }
func (d *userDataset) MarkDirty()   { d.buffer.MarkUsersDirty() }

func (d *userDataset) Reconcile(diskTree map[string]any) ([]byte, error) {
	return d.buffer.ReconcileUsers(diskTree)
}

func (d *userDataset) Validate(tree map[string]any) error {
	if tree == nil {
		return errors.New("user dataset is not an object")
	}
	if _, ok := tree["users"].(map[string]any); !ok {
		return errors.New("user dataset has no users mapping")
	}
	return nil
}

func (d *userDataset) EmptyTree() map[string]any {
	return map[string]any{"users": map[string]any{}}
}
