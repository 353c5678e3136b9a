package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// 记录的确定性编码：protobuf wire 格式，字段按编号顺序写，零值省略

var ErrMalformedRecord = errors.New("malformed record")

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	return appendUint(b, num, 1)
}

// walkFields 逐字段回调，未知字段跳过
func walkFields(data []byte, fn func(num protowire.Number, typ protowire.Type, data []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, data)
		}
		if m < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}

func consumeString(typ protowire.Type, data []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, fmt.Errorf("%w: want bytes field", ErrMalformedRecord)
	}
	s, n := protowire.ConsumeString(data)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
	}
	*dst = s
	return n, nil
}

func consumeUint(typ protowire.Type, data []byte, dst *uint64) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("%w: want varint field", ErrMalformedRecord)
	}
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, fmt.Errorf("%w: %v", ErrMalformedRecord, protowire.ParseError(n))
	}
	*dst = v
	return n, nil
}

// ========== Vault ==========
// 1 authority, 2 locked, 3 event_seq

// MarshalVault 编码金库记录（地址是 key，余额在账本里，都不入编码）
func MarshalVault(v *Vault) []byte {
	var b []byte
	b = appendString(b, 1, v.Authority)
	b = appendBool(b, 2, v.Locked)
	b = appendUint(b, 3, v.EventSeq)
	return b
}

// UnmarshalVault 解码金库记录
func UnmarshalVault(address string, data []byte) (*Vault, error) {
	v := &Vault{Address: address}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, d, &v.Authority)
		case 2:
			var locked uint64
			n, err := consumeUint(typ, d, &locked)
			v.Locked = locked != 0
			return n, err
		case 3:
			return consumeUint(typ, d, &v.EventSeq)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if v.Authority == "" {
		return nil, fmt.Errorf("%w: vault without authority", ErrMalformedRecord)
	}
	return v, nil
}

// ========== Account ==========
// 1 address, 2 balance, 3 nonce

// MarshalAccount 编码账户
func MarshalAccount(a *Account) []byte {
	var b []byte
	b = appendString(b, 1, a.Address)
	b = appendUint(b, 2, a.Balance)
	b = appendUint(b, 3, a.Nonce)
	return b
}

// UnmarshalAccount 解码账户
func UnmarshalAccount(data []byte) (*Account, error) {
	a := &Account{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, d, &a.Address)
		case 2:
			return consumeUint(typ, d, &a.Balance)
		case 3:
			return consumeUint(typ, d, &a.Nonce)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ========== Event ==========
// 1 version, 2 type, 3 vault, 4 seq, 5 depositor, 6 authority, 7 amount, 8 locked, 9 tx_id

// MarshalEvent 编码事件（不含 ID，ID 由编码结果计算）
func MarshalEvent(e *Event) []byte {
	var b []byte
	b = appendUint(b, 1, uint64(e.Version))
	b = appendString(b, 2, string(e.Type))
	b = appendString(b, 3, e.Vault)
	b = appendUint(b, 4, e.Seq)
	b = appendString(b, 5, e.Depositor)
	b = appendString(b, 6, e.Authority)
	b = appendUint(b, 7, e.Amount)
	b = appendBool(b, 8, e.Locked)
	b = appendString(b, 9, e.TxID)
	return b
}

// UnmarshalEvent 解码事件，ID 由 idFn 重新计算
func UnmarshalEvent(data []byte, idFn func([]byte) string) (*Event, error) {
	e := &Event{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, d []byte) (int, error) {
		switch num {
		case 1:
			var v uint64
			n, err := consumeUint(typ, d, &v)
			e.Version = uint32(v)
			return n, err
		case 2:
			var s string
			n, err := consumeString(typ, d, &s)
			e.Type = EventType(s)
			return n, err
		case 3:
			return consumeString(typ, d, &e.Vault)
		case 4:
			return consumeUint(typ, d, &e.Seq)
		case 5:
			return consumeString(typ, d, &e.Depositor)
		case 6:
			return consumeString(typ, d, &e.Authority)
		case 7:
			return consumeUint(typ, d, &e.Amount)
		case 8:
			var locked uint64
			n, err := consumeUint(typ, d, &locked)
			e.Locked = locked != 0
			return n, err
		case 9:
			return consumeString(typ, d, &e.TxID)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}
	if idFn != nil {
		e.ID = idFn(data)
	}
	return e, nil
}

// ========== Request ==========
// 1 domain, 2 kind, 3 signer, 4 owner, 5 vault, 6 amount, 7 nonce

func encodeRequest(r *Request, namespace string) []byte {
	var b []byte
	b = appendString(b, 1, namespace)
	b = appendString(b, 2, string(r.Kind))
	b = appendString(b, 3, r.Signer)
	b = appendString(b, 4, r.Owner)
	b = appendString(b, 5, r.Vault)
	b = appendUint(b, 6, r.Amount)
	b = appendUint(b, 7, r.Nonce)
	return b
}

func txID(signing, sig []byte) string {
	h := sha256.New()
	h.Write(signing)
	h.Write(sig)
	return hex.EncodeToString(h.Sum(nil))
}
