/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ctlerrors

import (
	"errors"
	"fmt"
)

// ErrCollaborator means the API server rejected a list or patch call
// (transport, authorization, conflict, not found).
var ErrCollaborator = errors.New("cluster api failure")

// ErrEncoding means a patch could not be serialized.
var ErrEncoding = errors.New("encoding failure")

func WrapErrorf(err error, format string, a ...any) error {
	return fmt.Errorf("%w: %w", err, fmt.Errorf(format, a...))
}

func ErrCollaboratorf(format string, a ...any) error {
	return WrapErrorf(ErrCollaborator, format, a...)
}

func ErrEncodingf(format string, a ...any) error {
	return WrapErrorf(ErrEncoding, format, a...)
}
