package wasmfront

import (
	"errors"
	"fmt"
)

// Decoding errors returned by Decode.
var (
	ErrInvalidMagic   = errors.New("wasmfront: invalid magic number")
	ErrInvalidVersion = errors.New("wasmfront: unsupported binary version")
)

// Decode parses a WebAssembly MVP binary module into an in-memory Module.
// It performs only the structural decoding the binary format itself
// requires (section ordering, vector lengths, LEB128 widths); it does not
// run the Wasm validation algorithm (stack typing, index bounds against
// declared counts) — that is translate's job, which can report failures
// in terms a shader author understands.
func Decode(data []byte) (*Module, error) {
	r := newReader(data)

	magic, err := r.u32LE()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.u32LE()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	lastOrder := 0

	for !r.atEnd() {
		sectionID, err := r.byte()
		if err != nil {
			return nil, fmt.Errorf("section header: %w", err)
		}
		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order <= lastOrder {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastOrder = order
		}

		size, err := r.u32()
		if err != nil {
			return nil, fmt.Errorf("section size: %w", err)
		}
		body, err := r.bytesN(int(size))
		if err != nil {
			return nil, fmt.Errorf("section body: %w", err)
		}
		sr := newReader(body)

		switch sectionID {
		case SectionCustom:
			err = decodeCustomSection(sr, m)
		case SectionType:
			err = decodeTypeSection(sr, m)
		case SectionImport:
			err = decodeImportSection(sr, m)
		case SectionFunction:
			err = decodeFunctionSection(sr, m)
		case SectionTable:
			err = decodeTableSection(sr, m)
		case SectionMemory:
			err = decodeMemorySection(sr, m)
		case SectionGlobal:
			err = decodeGlobalSection(sr, m)
		case SectionExport:
			err = decodeExportSection(sr, m)
		case SectionStart:
			err = decodeStartSection(sr, m)
		case SectionElement:
			err = decodeElementSection(sr, m)
		case SectionCode:
			err = decodeCodeSection(sr, m)
		case SectionData:
			err = decodeDataSection(sr, m)
		default:
			err = fmt.Errorf("unknown section id 0x%02x", sectionID)
		}
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", sectionID, err)
		}
	}

	return m, nil
}

// sectionOrder gives the canonical MVP section ordering, which differs
// from the section IDs themselves.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionGlobal:
		return 6
	case SectionExport:
		return 7
	case SectionStart:
		return 8
	case SectionElement:
		return 9
	case SectionCode:
		return 10
	case SectionData:
		return 11
	default:
		return 100
	}
}

func decodeCustomSection(r *reader, m *Module) error {
	name, err := r.name()
	if err != nil {
		return err
	}
	rest, err := r.bytesN(r.remaining())
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{Name: name, Data: rest})
	return nil
}

func decodeTypeSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Types = make([]FuncType, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.byte()
		if err != nil {
			return fmt.Errorf("type %d: %w", i, err)
		}
		if form != FuncTypeByte {
			return fmt.Errorf("type %d: expected functype (0x60), got 0x%02x", i, form)
		}
		ft, err := decodeFuncType(r)
		if err != nil {
			return fmt.Errorf("type %d: %w", i, err)
		}
		m.Types[i] = ft
	}
	return nil
}

func decodeFuncType(r *reader) (FuncType, error) {
	params, err := decodeValTypeVec(r)
	if err != nil {
		return FuncType{}, err
	}
	results, err := decodeValTypeVec(r)
	if err != nil {
		return FuncType{}, err
	}
	return FuncType{Params: params, Results: results}, nil
}

func decodeValTypeVec(r *reader) ([]ValType, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	vals := make([]ValType, count)
	for i := uint32(0); i < count; i++ {
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		vals[i] = ValType(b)
	}
	return vals, nil
}

func decodeImportSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, count)
	for i := uint32(0); i < count; i++ {
		mod, err := r.name()
		if err != nil {
			return err
		}
		name, err := r.name()
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		imp := Import{Module: mod, Name: name, Desc: ImportDesc{Kind: kind}}
		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.u32()
		case KindTable:
			var t TableType
			t, err = decodeTableType(r)
			imp.Desc.Table = &t
		case KindMemory:
			var mt MemoryType
			mt, err = decodeMemoryType(r)
			imp.Desc.Memory = &mt
		case KindGlobal:
			var gt GlobalType
			gt, err = decodeGlobalType(r)
			imp.Desc.Global = &gt
		default:
			return fmt.Errorf("unknown import kind %d", kind)
		}
		if err != nil {
			return err
		}
		m.Imports[i] = imp
	}
	return nil
}

func decodeFunctionSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Funcs = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		m.Funcs[i], err = r.u32()
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeTableSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Tables = make([]TableType, count)
	for i := uint32(0); i < count; i++ {
		m.Tables[i], err = decodeTableType(r)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeMemorySection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, count)
	for i := uint32(0); i < count; i++ {
		m.Memories[i], err = decodeMemoryType(r)
		if err != nil {
			return err
		}
	}
	return nil
}

func decodeGlobalSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Globals = make([]Global, count)
	for i := uint32(0); i < count; i++ {
		gt, err := decodeGlobalType(r)
		if err != nil {
			return err
		}
		init, err := decodeInitExpr(r)
		if err != nil {
			return err
		}
		m.Globals[i] = Global{Type: gt, Init: init}
	}
	return nil
}

func decodeExportSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.name()
		if err != nil {
			return err
		}
		kind, err := r.byte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("invalid export kind 0x%02x", kind)
		}
		idx, err := r.u32()
		if err != nil {
			return err
		}
		m.Exports[i] = Export{Name: name, Kind: kind, Idx: idx}
	}
	return nil
}

func decodeStartSection(r *reader, m *Module) error {
	idx, err := r.u32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func decodeElementSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Elements = make([]Element, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.u32()
		if err != nil {
			return err
		}
		if flags > 7 {
			return fmt.Errorf("invalid element segment flags %d", flags)
		}
		elem := Element{Flags: flags}

		hasTableIdx := flags&0x02 != 0 && flags&0x01 == 0
		hasOffset := flags&0x01 == 0
		usesExprs := flags&0x04 != 0

		if hasTableIdx {
			elem.TableIdx, err = r.u32()
			if err != nil {
				return err
			}
		}
		if hasOffset {
			elem.Offset, err = decodeInitExpr(r)
			if err != nil {
				return err
			}
		}
		if flags&0x03 != 0 {
			if usesExprs {
				if _, err := r.byte(); err != nil { // reftype byte
					return err
				}
			} else {
				if _, err := r.byte(); err != nil { // elemkind byte
					return err
				}
			}
		}
		vecCount, err := r.u32()
		if err != nil {
			return err
		}
		if usesExprs {
			for j := uint32(0); j < vecCount; j++ {
				if _, err := decodeInitExpr(r); err != nil {
					return err
				}
			}
		} else {
			elem.FuncIdxs = make([]uint32, vecCount)
			for j := uint32(0); j < vecCount; j++ {
				elem.FuncIdxs[j], err = r.u32()
				if err != nil {
					return err
				}
			}
		}
		m.Elements[i] = elem
	}
	return nil
}

func decodeCodeSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Code = make([]FuncBody, count)
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.u32()
		if err != nil {
			return err
		}
		bodyData, err := r.bytesN(int(bodySize))
		if err != nil {
			return err
		}
		br := newReader(bodyData)

		localCount, err := br.u32()
		if err != nil {
			return err
		}
		var locals []LocalEntry
		for j := uint32(0); j < localCount; j++ {
			n, err := br.u32()
			if err != nil {
				return err
			}
			t, err := br.byte()
			if err != nil {
				return err
			}
			locals = append(locals, LocalEntry{Count: n, ValType: ValType(t)})
		}
		code, err := br.bytesN(br.remaining())
		if err != nil {
			return err
		}
		m.Code[i] = FuncBody{Locals: locals, Code: code}
	}
	return nil
}

func decodeDataSection(r *reader, m *Module) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	m.Data = make([]DataSegment, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.u32()
		if err != nil {
			return err
		}
		if flags > 2 {
			return fmt.Errorf("invalid data segment flags %d", flags)
		}
		seg := DataSegment{Flags: flags}
		if flags == 2 {
			seg.MemIdx, err = r.u32()
			if err != nil {
				return err
			}
		}
		if flags != 1 {
			seg.Offset, err = decodeInitExpr(r)
			if err != nil {
				return err
			}
		}
		initLen, err := r.u32()
		if err != nil {
			return err
		}
		seg.Init, err = r.bytesN(int(initLen))
		if err != nil {
			return err
		}
		m.Data[i] = seg
	}
	return nil
}

func decodeLimits(r *reader) (Limits, error) {
	flags, err := r.byte()
	if err != nil {
		return Limits{}, err
	}
	min, err := r.u32()
	if err != nil {
		return Limits{}, err
	}
	l := Limits{Min: uint64(min)}
	if flags&LimitsHasMax != 0 {
		max, err := r.u32()
		if err != nil {
			return Limits{}, err
		}
		max64 := uint64(max)
		l.Max = &max64
	}
	if l.Max != nil && l.Min > *l.Max {
		return Limits{}, fmt.Errorf("limits min (%d) exceeds max (%d)", l.Min, *l.Max)
	}
	return l, nil
}

func decodeTableType(r *reader) (TableType, error) {
	elemType, err := r.byte()
	if err != nil {
		return TableType{}, err
	}
	limits, err := decodeLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elemType, Limits: limits}, nil
}

func decodeMemoryType(r *reader) (MemoryType, error) {
	limits, err := decodeLimits(r)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}

func decodeGlobalType(r *reader) (GlobalType, error) {
	valType, err := r.byte()
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.byte()
	if err != nil {
		return GlobalType{}, err
	}
	return GlobalType{ValType: ValType(valType), Mutable: mut != 0}, nil
}

// decodeInitExpr copies a constant expression verbatim (including its
// trailing end opcode) without evaluating it; evaluation happens in the
// memory package once globals and the linear-memory layout are known.
func decodeInitExpr(r *reader) ([]byte, error) {
	start := r.pos
	for {
		op, err := r.byte()
		if err != nil {
			return nil, err
		}
		if op == OpEnd {
			break
		}
		if err := skipInitExprImmediate(r, op); err != nil {
			return nil, err
		}
	}
	return r.data[start:r.pos], nil
}

func skipInitExprImmediate(r *reader, opcode byte) error {
	switch opcode {
	case OpI32Const:
		_, err := r.i32()
		return err
	case OpI64Const:
		_, err := r.i64()
		return err
	case OpF32Const:
		_, err := r.f32()
		return err
	case OpF64Const:
		_, err := r.f64()
		return err
	case OpGlobalGet:
		_, err := r.u32()
		return err
	default:
		return nil
	}
}
