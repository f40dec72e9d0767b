package redis

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/freshmart/cart-engine/internal/domain/cart"
	"github.com/freshmart/cart-engine/internal/domain/checkout"
	"github.com/freshmart/cart-engine/internal/domain/order"
	"github.com/freshmart/cart-engine/internal/domain/orderedit"
	"github.com/freshmart/cart-engine/internal/domain/promo"
)

// Snapshot codec. Hand-written jx encoders and decoders for the slot
// values; decimals travel as strings to keep them exact.

func encodeCartItems(items []cart.Item) []byte {
	var e jx.Encoder
	encodeCartItemsTo(&e, items)
	return e.Bytes()
}

func encodeCartItemsTo(e *jx.Encoder, items []cart.Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(it.Price.String())
		e.FieldStart("unit")
		e.Str(it.Unit)
		e.FieldStart("image")
		e.Str(it.Image)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

func decodeCartItems(data []byte) ([]cart.Item, error) {
	return decodeCartItemsFrom(jx.DecodeBytes(data))
}

func decodeCartItemsFrom(d *jx.Decoder) ([]cart.Item, error) {
	var items []cart.Item
	err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeCartItem(d)
		if err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func decodeCartItem(d *jx.Decoder) (cart.Item, error) {
	var it cart.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			it.ProductID, err = d.Str()
		case "name":
			it.Name, err = d.Str()
		case "price":
			it.Price, err = decodeDecimal(d)
		case "unit":
			it.Unit, err = d.Str()
		case "image":
			it.Image, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return it, err
}

func encodeForm(f *checkout.Form) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("name")
	e.Str(f.Name)
	e.FieldStart("phone")
	e.Str(f.Phone)
	e.FieldStart("deliveryType")
	e.Str(string(f.DeliveryType))
	e.FieldStart("address")
	e.Str(f.Address)
	e.ObjEnd()
	return e.Bytes()
}

func decodeForm(data []byte) (*checkout.Form, error) {
	var f checkout.Form
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			f.Name, err = d.Str()
		case "phone":
			f.Phone, err = d.Str()
		case "deliveryType":
			var v string
			v, err = d.Str()
			f.DeliveryType = order.DeliveryType(v)
		case "address":
			f.Address, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func encodePromo(p *promo.Applied) []byte {
	var e jx.Encoder
	encodePromoTo(&e, p)
	return e.Bytes()
}

func encodePromoTo(e *jx.Encoder, p *promo.Applied) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(p.Code)
	e.FieldStart("discount")
	e.Str(p.Discount.String())
	e.FieldStart("description")
	e.Str(p.Description)
	e.ObjEnd()
}

func decodePromo(data []byte) (*promo.Applied, error) {
	return decodePromoFrom(jx.DecodeBytes(data))
}

func decodePromoFrom(d *jx.Decoder) (*promo.Applied, error) {
	var p promo.Applied
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			p.Code, err = d.Str()
		case "discount":
			p.Discount, err = decodeDecimal(d)
		case "description":
			p.Description, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeEditState(st *orderedit.State) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("orderId")
	e.Str(st.OrderID)
	e.FieldStart("orderNumber")
	e.Str(st.OrderNumber)
	e.FieldStart("items")
	encodeCartItemsTo(&e, st.Items)
	if st.Promo != nil {
		e.FieldStart("promo")
		encodePromoTo(&e, st.Promo)
	}
	e.ObjEnd()
	return e.Bytes()
}

func decodeEditState(data []byte) (*orderedit.State, error) {
	var st orderedit.State
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "orderId":
			st.OrderID, err = d.Str()
		case "orderNumber":
			st.OrderNumber, err = d.Str()
		case "items":
			st.Items, err = decodeCartItemsFrom(d)
		case "promo":
			st.Promo, err = decodePromoFrom(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse decimal")
	}
	return v, nil
}
