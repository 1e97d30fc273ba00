/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package security

import "github.com/humaidq/ennu/logging"

var logger = logging.Logger(logging.SourceSecurity)
