package linecache

const nilIndex int32 = -1

type mruNode struct {
	d          *LineDisplay
	prev, next int32
}

// mruList is a doubly-linked recency list stored in a slab. Links are slab
// indices; freed slots are chained through next and reused.
type mruList struct {
	nodes []mruNode
	free  int32
	head  int32
	tail  int32
	n     int
}

func newMRUList(capacity int) mruList {
	return mruList{
		nodes: make([]mruNode, 0, capacity+1),
		free:  nilIndex,
		head:  nilIndex,
		tail:  nilIndex,
	}
}

func (l *mruList) len() int {
	return l.n
}

// pushFront links d at the head and returns its slot.
func (l *mruList) pushFront(d *LineDisplay) int32 {
	var i int32
	if l.free != nilIndex {
		i = l.free
		l.free = l.nodes[i].next
	} else {
		i = int32(len(l.nodes))
		l.nodes = append(l.nodes, mruNode{})
	}
	l.nodes[i] = mruNode{d: d, prev: nilIndex, next: l.head}
	l.linkFront(i)
	l.n++
	return i
}

func (l *mruList) linkFront(i int32) {
	node := &l.nodes[i]
	node.prev = nilIndex
	node.next = l.head
	if l.head != nilIndex {
		l.nodes[l.head].prev = i
	}
	l.head = i
	if l.tail == nilIndex {
		l.tail = i
	}
}

func (l *mruList) unlink(i int32) {
	node := &l.nodes[i]
	if node.prev != nilIndex {
		l.nodes[node.prev].next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nilIndex {
		l.nodes[node.next].prev = node.prev
	} else {
		l.tail = node.prev
	}
	node.prev, node.next = nilIndex, nilIndex
}

// remove unlinks slot i and returns it to the free chain.
func (l *mruList) remove(i int32) {
	l.unlink(i)
	l.nodes[i] = mruNode{prev: nilIndex, next: l.free}
	l.free = i
	l.n--
}

// moveToFront promotes slot i to the head.
func (l *mruList) moveToFront(i int32) {
	if l.head == i {
		return
	}
	l.unlink(i)
	l.linkFront(i)
}

func (l *mruList) front() *LineDisplay {
	if l.head == nilIndex {
		return nil
	}
	return l.nodes[l.head].d
}

func (l *mruList) back() *LineDisplay {
	if l.tail == nilIndex {
		return nil
	}
	return l.nodes[l.tail].d
}

func (l *mruList) at(i int32) *LineDisplay {
	if i < 0 || int(i) >= len(l.nodes) {
		return nil
	}
	return l.nodes[i].d
}

// each calls f from head to tail until f returns false. f must not modify
// the list.
func (l *mruList) each(f func(*LineDisplay) bool) {
	for i := l.head; i != nilIndex; i = l.nodes[i].next {
		if !f(l.nodes[i].d) {
			return
		}
	}
}
