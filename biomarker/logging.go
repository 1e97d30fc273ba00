/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package biomarker

import "github.com/humaidq/ennu/logging"

var logger = logging.Logger(logging.SourceEngine)
