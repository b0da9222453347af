package identity

import "context"

// OwnershipChecker answers whether a wallet belongs to a customer.
type OwnershipChecker interface {
	IsOwnedBy(ctx context.Context, walletID, customerID int64) bool
}

// CanAccessWallet reports whether p may read or move funds on walletID.
// Employees may act on any wallet; customers only on their own.
func (p Principal) CanAccessWallet(ctx context.Context, owners OwnershipChecker, walletID int64) bool {
	if p.IsEmployee() {
		return true
	}
	return p.Role == RoleCustomer && owners.IsOwnedBy(ctx, walletID, p.UserID)
}

// CanActFor reports whether p may act on behalf of customerID.
func (p Principal) CanActFor(customerID int64) bool {
	return p.IsEmployee() || (p.Role == RoleCustomer && p.UserID == customerID)
}
