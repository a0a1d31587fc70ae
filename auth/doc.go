// Package auth issues and verifies admin bearer tokens and hashes admin
// passwords.
//
// Passwords are hashed with Argon2id and encoded as
// "argon2id$<time>$<memory>$<threads>$<salt>$<hash>". Tokens are HS256 JWTs
// whose subject is the admin id. Authenticator combines token parsing with a
// short-lived LRU cache of admin state so that deactivated accounts are
// rejected without a database read on every request.
package auth
