package models

import "time"

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Avatar       string `json:"avatar"`
	// SessionID is the id of the only valid session; logging in elsewhere
	// rotates it and invalidates tokens carrying the old one.
	SessionID       string     `json:"-"`
	Cart            []CartItem `json:"cart"`
	Likes           []string   `json:"likes"`
	PurchaseHistory []CartItem `json:"purchaseHistory"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CartItem is an Item snapshot frozen into a cart entry or, after a
// completed transaction, into purchase history. CartID is unique per entry;
// the item fields are a copy taken at add/purchase time and may go stale.
type CartItem struct {
	Item
	CartID string `json:"cartId"`
}

// LikesItem reports whether the user's like list contains the item id.
func (u *User) LikesItem(itemID string) bool {
	for _, id := range u.Likes {
		if id == itemID {
			return true
		}
	}
	return false
}

// InCart reports whether the cart already holds an entry for the item id.
func (u *User) InCart(itemID string) bool {
	for _, c := range u.Cart {
		if c.Item.ID == itemID {
			return true
		}
	}
	return false
}
