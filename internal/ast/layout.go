package ast

// deriveLayouts gives every complete record a record type and fills in the
// size, alignment and field offsets the front-end did not provide. Provided
// values are never overwritten. Bitfields are packed the Itanium way: a
// bitfield starts a new storage unit only when it would straddle one.
func deriveLayouts(root *Node) {
	done := make(map[*Node]bool)
	Walk(root, func(n *Node) bool {
		if n.IsRecord() && n.IsComplete() {
			layoutRecord(n, done)
		}
		return true
	})
}

func layoutRecord(n *Node, done map[*Node]bool) {
	if done[n] {
		return
	}
	done[n] = true

	if n.Type == nil {
		n.Type = &Type{Kind: RecordType, Spelling: n.Name, Decl: n}
	}

	// Lay out field record types first so their sizes are known
	for _, f := range n.Fields() {
		if d := recordDeclOf(f.Type); d != nil && d.IsComplete() {
			layoutRecord(d, done)
		}
	}
	for _, b := range n.Bases {
		if d := b.Record(); d != nil && d.IsComplete() {
			layoutRecord(d, done)
		}
	}

	provided := false
	for _, f := range n.Fields() {
		if f.OffsetBits != 0 {
			provided = true
			break
		}
	}

	for _, is64 := range []bool{false, true} {
		size, align, offsets := naturalLayout(n, is64)
		if is64 && !provided {
			for i, f := range n.Fields() {
				f.OffsetBits = offsets[i]
			}
		}
		if is64 {
			if n.Type.Size64 == 0 {
				n.Type.Size64 = size
			}
			if n.Type.Align64 == 0 {
				n.Type.Align64 = align
			}
		} else {
			if n.Type.Size32 == 0 {
				n.Type.Size32 = size
			}
			if n.Type.Align32 == 0 {
				n.Type.Align32 = align
			}
		}
	}
}

func recordDeclOf(t *Type) *Node {
	c := t.Canonical()
	for c != nil && (c.Kind == ConstantArrayType || c.Kind == IncompleteArrayType) {
		c = c.Element.Canonical()
	}
	if c == nil || c.Kind != RecordType {
		return nil
	}
	return c.Decl
}

func alignUp(v, a int64) int64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

// naturalLayout computes size and alignment in bytes and field offsets in bits
func naturalLayout(n *Node, is64 bool) (size, align int64, offsets []int64) {
	ptr := int64(4)
	if is64 {
		ptr = 8
	}
	align = 1
	var bits int64

	primaryVtbl := false
	for _, b := range n.Bases {
		if b.IsVirtual {
			continue
		}
		bs := b.Type.SizeOf(is64)
		ba := max(b.Type.AlignOf(is64), 1)
		bits = alignUp(bits, ba*8) + bs*8
		align = max(align, ba)
		if b.Record().HasVtbl() {
			primaryVtbl = true
		}
	}
	if n.HasVtbl() && !primaryVtbl {
		bits = alignUp(bits, ptr*8) + ptr*8
		align = max(align, ptr)
	}

	var unionBits int64
	for _, f := range n.Fields() {
		fs := f.Type.SizeOf(is64)
		fa := max(f.Type.AlignOf(is64), 1)
		align = max(align, fa)

		if n.IsUnion() {
			offsets = append(offsets, 0)
			if f.IsBitField {
				unionBits = max(unionBits, int64(f.BitWidth))
			} else {
				unionBits = max(unionBits, fs*8)
			}
			continue
		}

		if f.IsBitField {
			unit := max(fs*8, 8)
			w := int64(f.BitWidth)
			if w == 0 {
				bits = alignUp(bits, unit)
				offsets = append(offsets, bits)
				continue
			}
			if bits/unit != (bits+w-1)/unit {
				bits = alignUp(bits, unit)
			}
			offsets = append(offsets, bits)
			bits += w
			continue
		}

		bits = alignUp(bits, fa*8)
		offsets = append(offsets, bits)
		bits += fs * 8
	}
	if n.IsUnion() {
		bits = unionBits
	}

	size = alignUp(alignUp(bits, 8)/8, align)
	return size, align, offsets
}
