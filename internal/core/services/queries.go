// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

// Queries over the run history table. The table name is substituted with
// fmt; every value is passed as a named query parameter.
const (
	QryListRuns = "SELECT * FROM `%s` ORDER BY create_date DESC LIMIT @limit"

	QryFindRunById = "SELECT * FROM `%s` WHERE run_id = @run_id LIMIT 1"

	QrySearchRunsByTitle = "SELECT * FROM `%s` WHERE LOWER(title) LIKE CONCAT('%%', LOWER(@term), '%%') ORDER BY create_date DESC LIMIT @limit"

	QryRunStats = "SELECT COUNT(*) AS runs, COUNTIF(translated) AS translated, AVG(compression_ratio) AS avg_compression_ratio FROM `%s`"
)
