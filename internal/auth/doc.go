// Package auth provides authentication and authorisation for Tom.Camp Core.
//
// It implements a three-tier role model (AUTHENTICATED < EDITOR < ADMIN) with:
//   - Argon2id password hashing, with verification of legacy bcrypt hashes
//   - a bounded Hasher so concurrent logins cannot exhaust memory
//   - stateless HS256 bearer tokens with a fixed 30-minute lifetime
//   - random URL-safe API keys for devices
//
// Role checks are rank comparisons (Authorize). Ownership of journals and
// pages is a separate rule (CanModify): the author or any ADMIN.
package auth
