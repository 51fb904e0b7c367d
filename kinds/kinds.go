package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

func Kind(id uint64, bases ...uint64) uint64 {
	id = id & idMask
	ids := make(map[uint64]struct{})

	for _, base := range bases {
		for j := 0; j < depthMax; j++ {
			baseId := (base >> (idLength * j)) & idMask
			if baseId == 0 {
				break
			}
			if _, ok := ids[baseId]; !ok {
				ids[baseId] = struct{}{}
				id |= baseId << (idLength * len(ids))
			}
		}
	}
	return id
}

// IsKind checks if kind matches any of the bases provided.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if kind == baseId {
			return true
		}
		for i := 0; i < depthMax; i++ {
			currentId := (kind >> (idLength * i)) & idMask
			if currentId == baseId {
				return true
			}
		}
	}
	return false
}

// String returns the name of the most derived kind.
func String(kind uint64) string {
	if name, ok := names[kind&idMask]; ok {
		return name
	}
	return "unknown"
}

var (
	Null        = Kind(0)
	Element     = Kind(1)
	Command     = Kind(2, Element)
	Group       = Kind(3, Command)
	Sequential  = Kind(4, Group)
	Parallel    = Kind(5, Group)
	Race        = Kind(6, Parallel)
	Instant     = Kind(7, Command)
	Run         = Kind(8, Command)
	Wait        = Kind(9, Command)
	Action      = Kind(10, Command)
	Subsystem   = Kind(11, Element)
	Trigger     = Kind(12, Element)
	BindingLoop = Kind(13, Element)
	Scheduler   = Kind(14, Element)
)

var names = map[uint64]string{
	Null & idMask:        "null",
	Element & idMask:     "element",
	Command & idMask:     "command",
	Group & idMask:       "group",
	Sequential & idMask:  "sequential",
	Parallel & idMask:    "parallel",
	Race & idMask:        "race",
	Instant & idMask:     "instant",
	Run & idMask:         "run",
	Wait & idMask:        "wait",
	Action & idMask:      "action",
	Subsystem & idMask:   "subsystem",
	Trigger & idMask:     "trigger",
	BindingLoop & idMask: "binding_loop",
	Scheduler & idMask:   "scheduler",
}
