// Package transport defines the driver abstraction of the client and the
// process-wide registry of available drivers.
//
// The package focuses on:
//   - Defining the IDriver contract every connection driver fulfills
//   - Keeping an ordered, name-indexed registry of driver candidates
//   - Mapping OS and runtime failures to the error kinds of the common package
//
// Key Components:
//
//   - IDriver: connect, write one command, read one reply, disconnect.
//
//   - Registry: ordered set of Entry values. Drivers register themselves from the
//     std package; Select picks the last registered entry with the requested
//     capabilities.
//
//   - ClassifyConnect/ClassifyWrite/ClassifyRead: error classification used by
//     the drivers.
//
//   - SecondsToMicros: conversion of fractional second timeouts to the integer
//     microseconds stored by the drivers.
package transport
