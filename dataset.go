package dicom

import (
	"fmt"
	"sort"
)

// DefaultMaxSequenceDepth is the default nested-SQ bound (spec §6,
// max_sequence_depth).
const DefaultMaxSequenceDepth = 32

// Dataset is an ordered tag -> element mapping preserving insertion order,
// with tags within a group emitted in ascending order on write (spec §3
// "Dataset"). It also tracks the private-creator directory: for each
// (group, slot), the creator identifier currently occupying that slot.
type Dataset struct {
	order    []Tag
	elements map[Tag]Element
	// creators maps (group, slot) -> creator identifier string, the
	// private-creator directory required by spec §3's Dataset invariants.
	creators map[privateSlotKey]string
}

type privateSlotKey struct {
	group uint16
	slot  uint8
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		elements: make(map[Tag]Element),
		creators: make(map[privateSlotKey]string),
	}
}

// Put inserts or replaces the element at its tag. Re-insertion replaces in
// place, preserving the original position in iteration order (spec §3:
// "Duplicate tags are forbidden; re-insertion replaces").
func (d *Dataset) Put(e Element) {
	tag := e.Tag()
	if _, exists := d.elements[tag]; !exists {
		d.order = append(d.order, tag)
	}
	d.elements[tag] = e
	if tag.IsPrivateCreator() {
		if se, ok := e.(*StringElement); ok && len(se.Values) > 0 {
			d.creators[privateSlotKey{tag.Group, uint8(tag.Element)}] = se.Values[0]
		}
	}
}

// Get returns the element at tag, or (nil, false).
func (d *Dataset) Get(tag Tag) (Element, bool) {
	e, ok := d.elements[tag]
	return e, ok
}

// MustGet returns the element at tag or an error (spec §7 taxonomy "Tag").
func (d *Dataset) MustGet(tag Tag) (Element, error) {
	e, ok := d.elements[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
	}
	return e, nil
}

// Delete removes the element at tag, if present.
func (d *Dataset) Delete(tag Tag) {
	if _, ok := d.elements[tag]; !ok {
		return
	}
	delete(d.elements, tag)
	for i, t := range d.order {
		if t == tag {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of elements in the dataset.
func (d *Dataset) Len() int { return len(d.order) }

// Elements returns elements sorted by group, then by element number, as
// required for serialization (spec §3); insertion order is not kept.
func (d *Dataset) Elements() []Element {
	tags := make([]Tag, len(d.order))
	copy(tags, d.order)
	sort.SliceStable(tags, func(i, j int) bool {
		if tags[i].Group != tags[j].Group {
			return tags[i].Group < tags[j].Group
		}
		return tags[i].Element < tags[j].Element
	})
	out := make([]Element, len(tags))
	for i, t := range tags {
		out[i] = d.elements[t]
	}
	return out
}

// CreatorForSlot returns the creator identifier registered for (group,
// slot), if any.
func (d *Dataset) CreatorForSlot(group uint16, slot uint8) (string, bool) {
	c, ok := d.creators[privateSlotKey{group, slot}]
	return c, ok
}

// Validate checks the dataset invariants of spec §3: every private data tag
// present must have a matching creator element for its (group, slot) in the
// same dataset.
func (d *Dataset) Validate() error {
	for _, tag := range d.order {
		if !tag.IsPrivateData() {
			continue
		}
		if _, ok := d.creators[privateSlotKey{tag.Group, tag.PrivateSlot()}]; !ok {
			return fmt.Errorf("%w: %s", ErrOrphanPrivateElement, tag)
		}
	}
	return nil
}

// StripPrivateTags removes private creator and private data elements. If
// keep is non-nil, a creator (and the data elements it governs) is kept
// when keep(creatorIdentifier) returns true.
func (d *Dataset) StripPrivateTags(keep func(creator string) bool) {
	keptSlots := make(map[privateSlotKey]bool)
	for key, creator := range d.creators {
		if keep != nil && keep(creator) {
			keptSlots[key] = true
		}
	}
	var toDelete []Tag
	for _, tag := range d.order {
		if !tag.IsPrivate() {
			continue
		}
		if tag.IsPrivateCreator() {
			key := privateSlotKey{tag.Group, uint8(tag.Element)}
			if keptSlots[key] {
				continue
			}
			toDelete = append(toDelete, tag)
		} else if tag.IsPrivateData() {
			key := privateSlotKey{tag.Group, tag.PrivateSlot()}
			if keptSlots[key] {
				continue
			}
			toDelete = append(toDelete, tag)
		}
	}
	for _, tag := range toDelete {
		d.Delete(tag)
		if tag.IsPrivateCreator() {
			delete(d.creators, privateSlotKey{tag.Group, uint8(tag.Element)})
		}
	}
}

// Clone makes a shallow copy of the dataset: element values are not copied,
// but insertion order and the creator directory are independent. Used by
// the association layer, which treats a dataset as immutable between PDU
// emissions (spec §3 "Lifecycles").
func (d *Dataset) Clone() *Dataset {
	clone := NewDataset()
	clone.order = append([]Tag(nil), d.order...)
	for k, v := range d.elements {
		clone.elements[k] = v
	}
	for k, v := range d.creators {
		clone.creators[k] = v
	}
	return clone
}

// Equal compares two datasets under semantic element equality: for two
// datasets produced from the same content under different endianness, equal
// means the same tags and values once endian-correction is applied.
// Equal compares by tag set and each element's String() rendering, which is
// sufficient for our element value types (the round-trip tests in
// file_test.go compare the re-read dataset with Equal).
func (d *Dataset) Equal(other *Dataset) bool {
	if d.Len() != other.Len() {
		return false
	}
	for tag, e := range d.elements {
		oe, ok := other.elements[tag]
		if !ok {
			return false
		}
		if e.String() != oe.String() {
			return false
		}
	}
	return true
}
