package domain

// Property names published through PropertyChange.
const (
	PropertyName                  = "Name"
	PropertyGeometry              = "Geometry"
	PropertyCompartments          = "Compartments"
	PropertySource                = "Source"
	PropertyTarget                = "Target"
	PropertySourceCompartment     = "SourceCompartment"
	PropertyTargetCompartment     = "TargetCompartment"
	PropertyBranchFeatures        = "BranchFeatures"
	PropertySpecialConnectionType = "SpecialConnectionType"
	PropertyCrossSection          = "CrossSection"
	PropertyStructures            = "Structures"
	PropertyChainage              = "Chainage"
)

// PropertyChange describes one mutated attribute of a network object
type PropertyChange struct {
	Sender   any
	Property string
}

// Subscription identifies a registered change handler
type Subscription struct {
	n  *notifier
	id uint64
}

// Cancel removes the handler. Cancelling a zero Subscription is a no-op.
func (s Subscription) Cancel() {
	if s.n != nil {
		s.n.remove(s.id)
	}
}

type handlerEntry struct {
	id uint64
	fn func(PropertyChange)
}

// notifier delivers change notifications synchronously, in registration order
type notifier struct {
	handlers []handlerEntry
	nextID   uint64
}

// OnPropertyChanged registers fn to be called after every change
func (n *notifier) OnPropertyChanged(fn func(PropertyChange)) Subscription {
	n.nextID++
	n.handlers = append(n.handlers, handlerEntry{id: n.nextID, fn: fn})
	return Subscription{n: n, id: n.nextID}
}

func (n *notifier) remove(id uint64) {
	for i, h := range n.handlers {
		if h.id == id {
			n.handlers = append(n.handlers[:i], n.handlers[i+1:]...)
			return
		}
	}
}

func (n *notifier) publish(sender any, property string) {
	if len(n.handlers) == 0 {
		return
	}
	// handlers may cancel themselves while we iterate
	snapshot := make([]handlerEntry, len(n.handlers))
	copy(snapshot, n.handlers)
	for _, h := range snapshot {
		h.fn(PropertyChange{Sender: sender, Property: property})
	}
}
