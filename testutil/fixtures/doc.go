// Package fixtures provides the sample books collection used by tests and the seed command.
//
// The collection holds 12 books. Useful facts for assertions:
//   - 4 books have genre "Fiction"
//   - 4 books were published after 1950
//   - George Orwell wrote "1984" and "Animal Farm"
//   - "The Alchemist" is the only in-stock book published after 1980
package fixtures
