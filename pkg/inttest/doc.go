// Package inttest enables writing of integration tests. Setup Docker containers for dependencies
// like MongoDB, Redis, MinIO and RabbitMQ using testcontainers. Every setup function ensures the
// container is ready before returning, ensures resources are cleaned up after the tests are
// finished and return a client ready to interact with the container.
package inttest
