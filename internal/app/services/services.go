package services

// Services defined in this package:
// - CredentialStore: student persistence with password hashing, verification and token minting
// - AuthService: register, login and current-student flows built on the CredentialStore
