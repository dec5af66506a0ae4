package auth

import "golang.org/x/crypto/bcrypt"

// bcryptでハッシュ化・照合する
type BcryptPassword struct {
	cost int
}

func NewBcryptPassword(cost int) *BcryptPassword {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPassword{cost: cost}
}

func (b *BcryptPassword) Hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *BcryptPassword) Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
